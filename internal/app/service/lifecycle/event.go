package lifecycle

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fatflowers/extpay/internal/app/service/credential"
	"github.com/fatflowers/extpay/pkg/apperr"
	"github.com/fatflowers/extpay/pkg/types"
)

// Event is an App Store lifecycle callback.
type Event struct {
	Action             types.LifecycleAction
	ApplicationCode    string
	ApplicationVersion int
	AuthCode           string
	Shop               string
	ShopURL            string
	Trial              bool
}

// ParseEvent reads and validates the form fields. expectedCode, when set,
// must match application_code.
func ParseEvent(form url.Values, expectedCode string) (*Event, error) {
	verr := &apperr.ValidationError{}
	e := &Event{
		Action:          types.LifecycleAction(strings.TrimSpace(form.Get("action"))),
		ApplicationCode: strings.TrimSpace(form.Get("application_code")),
		AuthCode:        strings.TrimSpace(form.Get("auth_code")),
		Shop:            strings.TrimSpace(form.Get("shop")),
		Trial:           parseBool(form.Get("trial")),
	}

	if !e.Action.Valid() {
		verr.Add("action must be one of install, upgrade, uninstall")
	}
	if e.ApplicationCode == "" {
		verr.Add("application_code is required")
	} else if expectedCode != "" && e.ApplicationCode != expectedCode {
		verr.Add("application_code does not match this application")
	}
	if e.Shop == "" {
		verr.Add("shop is required")
	}

	if raw := strings.TrimSpace(form.Get("application_version")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			verr.Add("application_version must be a non-negative integer")
		}
		e.ApplicationVersion = v
	} else if e.Action != types.LifecycleActionUninstall {
		verr.Add("application_version is required")
	}

	if raw := form.Get("shop_url"); raw != "" {
		normalized, err := credential.NormalizeShopURL(raw)
		if err != nil {
			verr.Add("shop_url must be a valid http(s) URL")
		}
		e.ShopURL = normalized
	} else if e.Action == types.LifecycleActionInstall {
		verr.Add("shop_url is required")
	}

	if e.Action == types.LifecycleActionInstall && e.AuthCode == "" {
		verr.Add("auth_code is required")
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
