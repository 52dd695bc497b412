// Package sources provides implementations of the CompanySource interface
// for various company directories. Each source knows how to discover
// candidate companies from a specific upstream (seed file, funding
// database, web search, etc.) and normalise them into DiscoveredCompany
// records.
//
// Sources are registered with the SourceCatalog at startup, highest
// confidence first.
package sources
