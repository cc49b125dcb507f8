package orgscope

import "fmt"

// Scope pins an entity to a slice of the organization. Empty fields mean
// "not narrowed at that level".
type Scope struct {
	Company    string
	Region     string
	Branch     string
	Department string
}

// FundScope drops the department, which treasury funds do not discriminate on.
func (s Scope) FundScope() Scope {
	return Scope{Company: s.Company, Region: s.Region, Branch: s.Branch}
}

// CompanyOnly keeps the company level only.
func (s Scope) CompanyOnly() Scope {
	return Scope{Company: s.Company}
}

// RegionLevel keeps company and region.
func (s Scope) RegionLevel() Scope {
	return Scope{Company: s.Company, Region: s.Region}
}

func (s Scope) IsZero() bool {
	return s.Company == "" && s.Region == "" && s.Branch == "" && s.Department == ""
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%s/%s", s.Company, s.Region, s.Branch)
}
