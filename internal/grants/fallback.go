package grants

import (
	"github.com/grantscope/backend/internal/models"
)

// fallbackDataset is the static dataset served when the live path fails or is
// disabled. Every record is tagged mock so callers can tell it apart from a
// live answer.
var fallbackDataset = []models.Grant{
	{
		ID:             "ED-GRANTS-0421-001",
		Title:          "Education Innovation and Research Program",
		Agency:         "Department of Education",
		Program:        "EIR",
		Deadline:       "2026-11-15",
		Amount:         "$4,000,000",
		Description:    "Supports the creation, development, implementation, replication, and scaling of evidence-based innovations to improve student achievement.",
		Eligibility:    "Local educational agencies, state educational agencies, nonprofit organizations",
		RelevanceScore: 0.92,
	},
	{
		ID:             "HHS-2026-ACF-OCS-EE-0102",
		Title:          "Community Economic Development Projects",
		Agency:         "Department of Health and Human Services",
		Program:        "Community Services Block Grant",
		Deadline:       "2026-10-01",
		Amount:         "$800,000",
		Description:    "Funds community development corporations for projects that address the economic needs of low-income individuals and families.",
		Eligibility:    "Private nonprofit community development corporations",
		RelevanceScore: 0.88,
	},
	{
		ID:             "NSF-26-532",
		Title:          "Small Business Innovation Research Phase I",
		Agency:         "National Science Foundation",
		Program:        "SBIR",
		Deadline:       "2026-09-17",
		Amount:         "$275,000",
		Description:    "Supports startups and small businesses to conduct research and development with commercial and societal impact.",
		Eligibility:    "Small businesses with fewer than 500 employees, majority US-owned",
		RelevanceScore: 0.85,
	},
	{
		ID:             "USDA-RD-RBDG-2026",
		Title:          "Rural Business Development Grants",
		Agency:         "Department of Agriculture",
		Program:        "Rural Development",
		Deadline:       "2026-12-05",
		Amount:         "$500,000",
		Description:    "Supports targeted technical assistance, training, and other activities leading to the development of small and emerging rural businesses.",
		Eligibility:    "Towns, communities, state agencies, nonprofits serving rural areas",
		RelevanceScore: 0.81,
	},
	{
		ID:             "DOE-FOA-0003215",
		Title:          "Clean Energy Manufacturing Innovation",
		Agency:         "Department of Energy",
		Program:        "Advanced Manufacturing Office",
		Deadline:       "2026-10-30",
		Amount:         "$2,500,000",
		Description:    "Funds research, development, and demonstration projects that advance clean energy manufacturing technologies.",
		Eligibility:    "Universities, national laboratories, industry partners",
		RelevanceScore: 0.78,
	},
	{
		ID:             "NIH-R01-CA-2026",
		Title:          "Research Project Grant Program",
		Agency:         "National Institutes of Health",
		Program:        "R01",
		Deadline:       "2026-10-05",
		Amount:         "$1,750,000",
		Description:    "Supports discrete, specified health-related research projects performed by named investigators in areas representing their specific interests.",
		Eligibility:    "Higher education institutions, nonprofits, for-profit organizations, governments",
		RelevanceScore: 0.75,
	},
	{
		ID:             "EPA-OW-IIS-2026-04",
		Title:          "Environmental Justice Small Grants",
		Agency:         "Environmental Protection Agency",
		Program:        "Environmental Justice",
		Deadline:       "2026-11-20",
		Amount:         "$100,000",
		Description:    "Supports communities working on solutions to local environmental and public health issues.",
		Eligibility:    "Community-based nonprofit organizations, tribal governments",
		RelevanceScore: 0.71,
	},
	{
		ID:             "DOC-EDA-PWEAA-2026",
		Title:          "Public Works and Economic Adjustment Assistance",
		Agency:         "Department of Commerce",
		Program:        "Economic Development Administration",
		Deadline:       "Rolling",
		Amount:         "$3,000,000",
		Description:    "Helps distressed communities revitalize, expand, and upgrade their physical infrastructure to attract new industry.",
		Eligibility:    "States, counties, cities, higher education institutions, nonprofits",
		RelevanceScore: 0.68,
	},
}

// FallbackGrants returns a copy of the static dataset tagged mock
func FallbackGrants() []models.Grant {
	grants := make([]models.Grant, len(fallbackDataset))
	copy(grants, fallbackDataset)
	for i := range grants {
		grants[i].DataSource = models.DataSourceMock
	}
	return grants
}
