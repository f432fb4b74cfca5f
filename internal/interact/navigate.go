package interact

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

const storePathPrefix = "/stores/"

// Intent asks the host application to open a store's detail view.
type Intent struct {
	StoreID string `json:"store_id"`
	Period  Period `json:"period,omitempty"`
}

// Path renders the intent as /stores/{store_id}?period={period}. The
// query is omitted when no period is set.
func (i Intent) Path() string {
	p := storePathPrefix + url.PathEscape(i.StoreID)
	if i.Period != "" {
		p += "?" + url.Values{"period": {string(i.Period)}}.Encode()
	}
	return p
}

// ParseTarget parses a navigation path produced by Intent.Path. The period
// is optional.
func ParseTarget(target string) (Intent, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Intent{}, eris.Wrapf(err, "interact: parse target %q", target)
	}
	if !strings.HasPrefix(u.Path, storePathPrefix) {
		return Intent{}, eris.Errorf("interact: target %q is not a store path", target)
	}
	id := strings.TrimPrefix(u.EscapedPath(), storePathPrefix)
	if id == "" || strings.Contains(id, "/") {
		return Intent{}, eris.Errorf("interact: target %q has no store id", target)
	}
	id, err = url.PathUnescape(id)
	if err != nil {
		return Intent{}, eris.Wrapf(err, "interact: unescape store id in %q", target)
	}

	intent := Intent{StoreID: id}
	if raw := u.Query().Get("period"); raw != "" {
		p, err := ParsePeriod(raw)
		if err != nil {
			return Intent{}, err
		}
		intent.Period = p
	}
	return intent, nil
}
