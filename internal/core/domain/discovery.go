package domain

// DiscoveredCompany is a candidate company reported by a source connector.
// It is ephemeral: records live only for the duration of a pipeline run and
// are merged into the registry by the upsert phase.
type DiscoveredCompany struct {
	// Name is the company name as reported by the source.
	Name string

	// Domain is the normalised registrable domain. Required; records without
	// a domain are dropped by the connector before they reach the aggregator.
	Domain string

	// Website is the company homepage or careers URL the source reported.
	Website string

	// Description is a short blurb from the source, often empty.
	Description string

	// Industry is a free-form sector label, often empty.
	Industry string

	// FundingStage is the funding stage, when the source knows it.
	FundingStage FundingStage

	// EmployeeCount is the reported headcount, zero when unknown.
	EmployeeCount int

	// FoundedYear is the founding year, zero when unknown.
	FoundedYear int

	// Source is the ID of the connector that produced this record.
	Source string

	// Confidence is the connector's trust level in [0,1]. Directory APIs
	// rank higher than scraped or inferred results.
	Confidence float64
}

// Valid reports whether the record carries the minimum fields for dedup
// and upsert: a domain and a name.
func (d *DiscoveredCompany) Valid() bool {
	return d.Domain != "" && d.Name != ""
}

// ToCompany converts the record into a registry row ready for upsert.
// Priority fields are left at their zero values; the store fills in the
// defaults for new rows and preserves them for existing ones.
func (d *DiscoveredCompany) ToCompany() Company {
	return Company{
		Name:            d.Name,
		Domain:          d.Domain,
		Website:         d.Website,
		Industry:        d.Industry,
		FundingStage:    d.FundingStage,
		EmployeeCount:   d.EmployeeCount,
		FoundedYear:     d.FoundedYear,
		DiscoverySource: d.Source,
	}
}
