package extraction

// CardSelectors describes one job-card layout. Card locates the repeating
// element; Title and Location are evaluated inside each card. An empty Title
// uses the card's own text, an empty Location leaves the location blank.
type CardSelectors struct {
	Name     string
	Card     string
	Title    string
	Location string
}

// VendorSelectors are tuned to hosted ATS markup. Each card selector is
// anchored to a vendor container so plain ".opening" or ".posting" markup
// falls through to GenericSelectors.
var VendorSelectors = []CardSelectors{
	{Name: "greenhouse", Card: "#main .opening", Title: "a", Location: ".location"},
	{Name: "greenhouse-boards", Card: "tr.job-post", Title: "p.body--medium", Location: "p.body__secondary"},
	{Name: "lever", Card: ".postings-group .posting", Title: `[data-qa="posting-name"], h5`, Location: ".posting-categories .location, .sort-by-location"},
	{Name: "workday", Card: `[data-automation-id="jobResults"] li`, Title: `a[data-automation-id="jobTitle"]`, Location: `[data-automation-id="locations"] dd`},
	{Name: "bamboohr", Card: ".BambooHR-ATS-Jobs-Item", Title: "a", Location: ".BambooHR-ATS-Location"},
	{Name: "smartrecruiters", Card: "li.opening-job", Title: ".job-title", Location: ".job-desc"},
	{Name: "workable", Card: `li[data-ui="job"]`, Title: `[data-ui="job-title"]`, Location: `[data-ui="job-location"]`},
	{Name: "icims", Card: ".iCIMS_JobsTable .row", Title: ".title a", Location: ".header.left span"},
	{Name: "taleo", Card: "tr.jobsbody, .requisitionListInterface li", Title: "a, .titlelink", Location: ".location, .morelocation"},
	{Name: "successfactors", Card: "tr.data-row", Title: "a.jobTitle-link", Location: ".jobLocation"},
	{Name: "jobvite", Card: ".jv-job-list tr", Title: ".jv-job-list-name a, .jv-job-list-name", Location: ".jv-job-list-location"},
}

const (
	genericTitle    = "h1, h2, h3, h4, .title, .job-title, a"
	genericLocation = ".location, .job-location, [class*='location']"
)

// GenericSelectors cover pages without a recognized vendor signature.
var GenericSelectors = []CardSelectors{
	{Name: "job", Card: ".job", Title: genericTitle, Location: genericLocation},
	{Name: "position", Card: ".position", Title: genericTitle, Location: genericLocation},
	{Name: "posting", Card: ".posting", Title: genericTitle, Location: genericLocation},
	{Name: "opening", Card: ".opening", Title: genericTitle, Location: genericLocation},
	{Name: "job-item", Card: ".job-item", Title: genericTitle, Location: genericLocation},
	{Name: "article", Card: "article", Title: genericTitle, Location: genericLocation},
}

// DefaultRoleKeywords mark anchor text as a likely job title.
var DefaultRoleKeywords = []string{
	"engineer", "manager", "analyst", "coordinator", "specialist",
	"technician", "operator", "supervisor", "director", "geologist",
	"superintendent", "foreman", "mechanic", "electrician", "millwright",
	"administrator", "accountant", "advisor", "planner", "inspector",
	"developer", "assistant", "officer", "labourer", "driver",
}

// NoisePhrases disqualify a title wherever they appear.
var NoisePhrases = []string{"read more", "view all", "see all", "learn more"}
