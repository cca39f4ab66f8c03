package impact

import (
	"fmt"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

const (
	maxDeaths    = 100_000
	maxCasualty  = 1_000_000
	maxDamageBil = 1e10
)

// Validate returns a description of every improbable figure. An article with
// issues is still admitted but flagged for verification.
func Validate(im domain.Impact) []string {
	var issues []string
	for _, n := range im.Deaths {
		if n > maxDeaths {
			issues = append(issues, fmt.Sprintf("deaths %d exceeds %d", n, maxDeaths))
		}
	}
	for _, list := range []struct {
		name string
		vals []int
	}{{"missing", im.Missing}, {"injured", im.Injured}} {
		for _, n := range list.vals {
			if n > maxCasualty {
				issues = append(issues, fmt.Sprintf("%s %d exceeds %d", list.name, n, maxCasualty))
			}
		}
	}
	if im.DamageBillionVND != nil && *im.DamageBillionVND > maxDamageBil {
		issues = append(issues, fmt.Sprintf("damage %.0f billion VND exceeds %.0f", *im.DamageBillionVND, maxDamageBil))
	}
	return issues
}
