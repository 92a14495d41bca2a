package diligence

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/net/publicsuffix"

	"diligence/internal/config"
	"diligence/internal/domain"
	models "diligence/internal/domain/models/diligence"
	svc "diligence/internal/domain/services/diligence"
)

var (
	methods = []interface{}{
		models.MethodEmail,
		models.MethodVerbal,
		models.MethodPlatform,
	}
	decisionStatuses = []interface{}{
		models.ItemApproved,
		models.ItemDeferred,
		models.ItemDenied,
	}
)

func categoryValues() []interface{} {
	values := make([]interface{}, len(models.Categories))
	for i, c := range models.Categories {
		values[i] = c
	}
	return values
}

func validateSubmitRequest(req *svc.SubmitRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.InvestorName,
			validation.Required.Error("investor name is required"),
			validation.By(notBlank("investor name")),
			validation.RuneLength(1, config.MaxInvestorNameLength),
		),
		validation.Field(&req.RawText,
			validation.Required.Error("request text is required"),
			validation.By(notBlank("request text")),
			validation.RuneLength(1, config.MaxRequestTextLength),
		),
		validation.Field(&req.Method, validation.In(methods...).Error("method must be Email, Verbal or Platform")),
	)
}

func validateUpdateItemStatusRequest(req *svc.UpdateItemStatusRequest) error {
	if req == nil {
		return errors.New("request is required")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.PackageID, validation.Required),
		validation.Field(&req.ItemID, validation.Required),
		validation.Field(&req.Status, validation.Required),
	)
}

func validateReplaceEvidenceRequest(req *svc.ReplaceEvidenceRequest) error {
	if req == nil {
		return errors.New("request is required")
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.PackageID, validation.Required),
		validation.Field(&req.ItemID, validation.Required),
		validation.Field(&req.Evidence, validation.Length(0, config.MaxEvidencePerItem)),
	); err != nil {
		return err
	}

	seen := make(map[string]bool, len(req.Evidence))
	for i, ev := range req.Evidence {
		id := strings.TrimSpace(ev.DocumentID)
		if id == "" {
			return fmt.Errorf("evidence[%d]: document_id is required", i)
		}
		if seen[id] {
			return fmt.Errorf("evidence[%d]: duplicate document_id %q", i, id)
		}
		seen[id] = true
	}
	return nil
}

func validateAddFounderRequest(req *svc.AddFounderRequestRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.PackageID, validation.Required),
		validation.Field(&req.Request,
			validation.Required.Error("request is required"),
			validation.By(notBlank("request")),
			validation.RuneLength(1, config.MaxItemRequestLength),
		),
		validation.Field(&req.Category, validation.In(categoryValues()...).Error("unknown category")),
	)
}

func notBlank(field string) validation.RuleFunc {
	return func(value interface{}) error {
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s must not be blank", field)
		}
		return nil
	}
}

// normalizeSiteURL turns user input like "acme.vc" or " https://Acme.vc/team "
// into an absolute http(s) URL and its registrable domain. Unless
// allowPrivate is set, the host must be a name under a public suffix.
func normalizeSiteURL(raw string, allowPrivate bool) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("%w: url is required", domain.ErrValidation)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	if err := validation.Validate(raw,
		validation.RuneLength(1, config.MaxURLLength),
		is.URL,
	); err != nil {
		return "", "", fmt.Errorf("%w: url %v", domain.ErrValidation, err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: url: %v", domain.ErrValidation, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("%w: url must use http or https", domain.ErrValidation)
	}
	if u.User != nil {
		return "", "", fmt.Errorf("%w: url must not carry credentials", domain.ErrValidation)
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", "", fmt.Errorf("%w: url has no host", domain.ErrValidation)
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if net.ParseIP(host) != nil {
		if !allowPrivate {
			return "", "", fmt.Errorf("%w: url must use a domain name, not an IP address", domain.ErrValidation)
		}
		return u.String(), host, nil
	}

	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || !hasPublicSuffix(host) {
		if !allowPrivate {
			return "", "", fmt.Errorf("%w: url host %q is not a public domain", domain.ErrValidation, host)
		}
		site = host
	}
	return u.String(), site, nil
}

// hasPublicSuffix rejects single-label hosts and made-up TLDs such as
// "localhost", "intranet" or "db.internal".
func hasPublicSuffix(host string) bool {
	suffix, icann := publicsuffix.PublicSuffix(host)
	if suffix == host {
		return false
	}
	return icann || strings.Contains(suffix, ".")
}
