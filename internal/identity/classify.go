package identity

import (
	"regexp"
	"strings"

	"github.com/crestline-group/recon-cli/internal/model"
)

// predicates is the canonical format table, checked in priority order.
// First match wins: a BVN is also an 11-digit string, so it must be tested
// before NIN.
var predicates = []struct {
	class model.IdentifierClass
	re    *regexp.Regexp
}{
	{model.ClassBankVerification, regexp.MustCompile(`^22\d{9}$`)},
	{model.ClassNationalID, regexp.MustCompile(`^\d{11}$`)},
	{model.ClassTaxID, regexp.MustCompile(`^\d{10}$`)},
	{model.ClassPassport, regexp.MustCompile(`^[A-Z]{1,2}\d{7}$`)},
	{model.ClassDriversLicense, regexp.MustCompile(`^[A-Z]-[A-Z]{5}\d{2}-\d{7}$`)},
	{model.ClassVotersCard, regexp.MustCompile(`^[A-Z]{3}/\d{3}/\d{2}/\d{5}$`)},
	{model.ClassCompanyRegistration, regexp.MustCompile(`^(?:RC|BN)/\d{7}$`)},
}

// Classify reports the most specific identifier class a normalized value
// matches, or ClassUnclassified. It never fails: garbage in, Unclassified out.
func Classify(v string) model.IdentifierClass {
	for _, p := range predicates {
		if p.re.MatchString(v) {
			return p.class
		}
	}
	return model.ClassUnclassified
}

// columnAliases maps folded column-name fragments to identifier classes.
// Sources name their identifier columns inconsistently ("BVN", "Customer
// BVN", "bank_verification_number", ...), so matching is by substring over a
// folded form of the header.
var columnAliases = []struct {
	class   model.IdentifierClass
	aliases []string
}{
	{model.ClassBankVerification, []string{"bvn", "bankverification", "bankverificationnumber", "customerbvn"}},
	{model.ClassNationalID, []string{"nin", "nationalid", "nationalidentification"}},
	{model.ClassTaxID, []string{"tin", "taxidentification", "taxid"}},
	{model.ClassPassport, []string{"passport", "passportnumber", "internationalpassport"}},
	{model.ClassDriversLicense, []string{"driverslicense", "driverlicence", "driverslicence", "driverlicense", "dlicense"}},
	{model.ClassVotersCard, []string{"voterscard", "votercard", "voterscardnumber"}},
	{model.ClassCompanyRegistration, []string{"rcnumber", "registrationnumber", "companyregistration"}},
}

var nonAlpha = regexp.MustCompile(`[^a-z]`)

// foldColumnName lowercases a header and strips everything but letters, so
// "Customer BVN", "customer_bvn" and "CustomerBVN2" all fold the same way.
func foldColumnName(name string) string {
	return nonAlpha.ReplaceAllString(strings.ToLower(name), "")
}

// ColumnClass matches a source column name against the known identifier
// column aliases. ok is false when the column does not look like an
// identifier column at all.
func ColumnClass(name string) (model.IdentifierClass, bool) {
	folded := foldColumnName(name)
	if folded == "" {
		return model.ClassUnclassified, false
	}
	for _, entry := range columnAliases {
		for _, alias := range entry.aliases {
			if strings.Contains(folded, alias) {
				return entry.class, true
			}
		}
	}
	return model.ClassUnclassified, false
}
