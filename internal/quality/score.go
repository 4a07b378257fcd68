package quality

import (
	"github.com/tackle-hunger/charity-cli/internal/model"
)

// ScoreSite scores a site's completeness.
func ScoreSite(site model.Site) Score {
	return scoreRecord(map[string]string{
		"id":             site.ID,
		"name":           site.Name,
		"street_address": site.Address.Street,
		"city":           site.Address.City,
		"state":          site.Address.State,
		"zip":            site.Address.Zip,
		"public_phone":   site.PublicPhone,
		"public_email":   site.PublicEmail,
		"website":        site.Website,
		"description":    site.Description,
		"service_area":   site.ServiceArea,
		"status":         site.Status,
		"ein":            site.EIN,
	}, siteFields)
}

// ScoreOrganization scores an organization. When the organization carries
// sites, the overall score blends the organization's own score (70%) with
// the average of its site scores (30%).
func ScoreOrganization(org model.Organization) Score {
	score := scoreRecord(map[string]string{
		"id":             org.ID,
		"name":           org.Name,
		"street_address": org.Address.Street,
		"city":           org.Address.City,
		"state":          org.Address.State,
		"zip":            org.Address.Zip,
		"public_phone":   org.PublicPhone,
		"public_email":   org.PublicEmail,
		"website":        org.Website,
		"description":    org.Description,
		"ein":            org.EIN,
	}, organizationFields)

	if len(org.Sites) > 0 {
		var sum float64
		for _, site := range org.Sites {
			sum += ScoreSite(site).Overall
		}
		avg := sum / float64(len(org.Sites))
		score.AvgSiteScore = round3(avg)
		score.SiteCount = len(org.Sites)
		score.Overall = round3(score.Overall*0.7 + avg*0.3)
	}
	return score
}

// Grade maps a score to a letter grade for report readability.
func Grade(score float64) string {
	switch {
	case score >= 0.9:
		return "A"
	case score >= 0.8:
		return "B"
	case score >= 0.7:
		return "C"
	case score >= 0.6:
		return "D"
	default:
		return "F"
	}
}
