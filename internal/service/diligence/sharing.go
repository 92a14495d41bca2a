package diligence

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"diligence/internal/domain"
	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

const (
	passcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passcodeLength   = 6
)

// errAlreadyShared short-circuits Share without storing a new version
var errAlreadyShared = errors.New("package already shared")

// Share issues the access link and passcode and marks the package Shared.
// A package that already has credentials gets them back unchanged.
func (s *Service) Share(ctx context.Context, packageID string) (*svc.ShareResult, error) {
	link, passcode, err := s.newCredentials()
	if err != nil {
		return nil, err
	}

	result := &svc.ShareResult{PackageID: packageID}
	_, err = s.packages.Mutate(ctx, packageID, func(p *models.Package) error {
		if p.SharingLink != nil && p.AccessPasscode != nil {
			result.SharingLink = *p.SharingLink
			result.AccessPasscode = *p.AccessPasscode
			result.Reused = true
			return errAlreadyShared
		}
		if p.Status != models.PackageDraft {
			return packageTransition(p.Status, models.PackageShared)
		}
		now := s.now()
		p.Status = models.PackageShared
		p.SharingLink = &link
		p.AccessPasscode = &passcode
		p.SharedAt = &now
		return nil
	})
	if err != nil && !errors.Is(err, errAlreadyShared) {
		return nil, err
	}

	if !result.Reused {
		result.SharingLink = link
		result.AccessPasscode = passcode
		s.logger.Info("package shared", "package_id", packageID)
	}
	return result, nil
}

// RotateShareAccess replaces the link and passcode of a shared package
func (s *Service) RotateShareAccess(ctx context.Context, packageID string) (*svc.ShareResult, error) {
	link, passcode, err := s.newCredentials()
	if err != nil {
		return nil, err
	}

	_, err = s.packages.Mutate(ctx, packageID, func(p *models.Package) error {
		if p.SharingLink == nil {
			return fmt.Errorf("%w: package %s has not been shared", domain.ErrInvalidTransition, packageID)
		}
		p.SharingLink = &link
		p.AccessPasscode = &passcode
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("share access rotated", "package_id", packageID)
	return &svc.ShareResult{PackageID: packageID, SharingLink: link, AccessPasscode: passcode}, nil
}

// CompletePackage closes a shared package
func (s *Service) CompletePackage(ctx context.Context, packageID string) (*models.Package, error) {
	pkg, err := s.packages.Mutate(ctx, packageID, func(p *models.Package) error {
		if p.Status != models.PackageShared {
			return packageTransition(p.Status, models.PackageComplete)
		}
		p.Status = models.PackageComplete
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("package completed", "package_id", packageID)
	return pkg, nil
}

func (s *Service) newCredentials() (string, string, error) {
	passcode, err := generatePasscode()
	if err != nil {
		return "", "", fmt.Errorf("generate passcode: %w", err)
	}
	return fmt.Sprintf("%s/shared/%s", s.config.ShareBaseURL, uuid.NewString()), passcode, nil
}

func generatePasscode() (string, error) {
	limit := big.NewInt(int64(len(passcodeAlphabet)))
	code := make([]byte, passcodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = passcodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

func packageTransition(from, to models.PackageStatus) error {
	return &domain.TransitionError{Machine: "package", From: string(from), To: string(to)}
}
