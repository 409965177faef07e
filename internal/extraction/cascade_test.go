package extraction

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/careerscout/internal/types"
)

var (
	fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acme      = types.Company{Name: "Acme Mining Ltd.", Sector: "mining"}
)

func newTestCascade(opts ...Option) *Cascade {
	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	return NewCascade(opts...)
}

func titles(records []types.JobRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestExtract_VendorWinsOverKeywordLinks(t *testing.T) {
	html := `<html><body>
		<nav><a href="/team">Meet our Operations Manager team</a></nav>
		<div id="main">
			<div class="opening"><a href="/acme/jobs/1">Senior Engineer</a><span class="location">Vancouver, BC</span></div>
			<div class="opening"><a href="/acme/jobs/2">Site Supervisor</a><span class="location">Elk Valley, BC</span></div>
			<div class="opening"><a href="/acme/jobs/3">Safety Coordinator</a><span class="location">Calgary, AB</span></div>
		</div>
		<a href="/blog/1">How our Field Technician crews work</a>
	</body></html>`

	records, method := newTestCascade().Extract(html, "https://boards.greenhouse.io/acme", acme)

	assert.Equal(t, types.MethodVendorStructured, method)
	assert.Equal(t, []string{"Senior Engineer", "Site Supervisor", "Safety Coordinator"}, titles(records))

	first := records[0]
	assert.Equal(t, "Vancouver, BC", first.Location)
	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/1", first.ApplicationURL)
	assert.Equal(t, "https://boards.greenhouse.io/acme", first.SourceURL)
	assert.Equal(t, "Acme Mining Ltd.", first.Company)
	assert.Equal(t, "mining", first.Sector)
	assert.Equal(t, types.MethodVendorStructured, first.DiscoveryMethod)
	assert.Equal(t, fixedTime, first.ScrapedAt)
}

func TestExtract_PlainCardClassesAreGeneric(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "opening outside greenhouse main",
			html: `<div class="opening"><h3>Mill Operator</h3><span class="location">Timmins, ON</span></div>
				<div class="opening"><h3>Assayer</h3><span class="location">Timmins, ON</span></div>`,
		},
		{
			name: "posting outside lever group",
			html: `<div class="posting"><h3>Mill Operator</h3><span class="location">Timmins, ON</span></div>
				<div class="posting"><h3>Assayer</h3><span class="location">Timmins, ON</span></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, method := newTestCascade().Extract(tt.html, "https://www.acme.com/careers", acme)

			assert.Equal(t, types.MethodGenericStructured, method)
			assert.Equal(t, []string{"Mill Operator", "Assayer"}, titles(records))
		})
	}
}

func TestExtract_LeverPostingsGroup(t *testing.T) {
	html := `<div class="postings-group">
		<div class="posting"><a data-qa="posting-name" href="https://jobs.lever.co/acme/1">Geotechnical Engineer</a>
			<div class="posting-categories"><span class="location">Kamloops, BC</span></div></div>
	</div>`

	records, method := newTestCascade().Extract(html, "https://jobs.lever.co/acme", acme)

	assert.Equal(t, types.MethodVendorStructured, method)
	require.Len(t, records, 1)
	assert.Equal(t, "Geotechnical Engineer", records[0].Title)
	assert.Equal(t, "Kamloops, BC", records[0].Location)
}

func TestExtract_GenericStructured(t *testing.T) {
	html := `<html><body>
		<ul>
			<li class="job-item"><h3>Heavy Equipment Operator</h3><span class="job-location">Fort McMurray, AB</span><a href="/careers/heo">Details</a></li>
			<li class="job-item"><h3>Process Engineer</h3><span class="job-location">Sarnia, ON</span></li>
		</ul>
	</body></html>`

	records, method := newTestCascade().Extract(html, "https://www.acme.com/careers", acme)

	assert.Equal(t, types.MethodGenericStructured, method)
	require.Len(t, records, 2)
	assert.Equal(t, "Heavy Equipment Operator", records[0].Title)
	assert.Equal(t, "Fort McMurray, AB", records[0].Location)
	assert.Equal(t, "https://www.acme.com/careers/heo", records[0].ApplicationURL)
	// No anchor in the card falls back to the source URL
	assert.Equal(t, "https://www.acme.com/careers", records[1].ApplicationURL)
}

func TestExtract_KeywordLinkFallback(t *testing.T) {
	html := `<html><body>
		<a href="/careers/1">Senior Mining Engineer - Underground</a>
		<a href="/careers/2">Mill Maintenance Supervisor</a>
		<a href="/careers/3">Engineer</a>
		<a href="/careers">Read more about engineer roles</a>
		<a href="/about">About our company history</a>
		<a href="/careers/1">Senior Mining Engineer - Underground</a>
	</body></html>`

	records, method := newTestCascade().Extract(html, "https://www.acme.com/careers", acme)

	assert.Equal(t, types.MethodKeywordLink, method)
	assert.Equal(t, []string{"Senior Mining Engineer - Underground", "Mill Maintenance Supervisor"}, titles(records))
	assert.Equal(t, "", records[0].Location)
	assert.Equal(t, "https://www.acme.com/careers/1", records[0].ApplicationURL)
}

func TestExtract_NothingFound(t *testing.T) {
	records, method := newTestCascade().Extract(`<html><body><p>Join us!</p></body></html>`, "https://www.acme.com/careers", acme)

	assert.Nil(t, records)
	assert.Equal(t, types.MethodNone, method)
}

func TestExtract_CapsRecords(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<div class="position"><h2>Field Technician %d</h2></div>`, i)
	}

	records, _ := newTestCascade().Extract(b.String(), "https://www.acme.com/careers", acme)
	assert.Len(t, records, DefaultMaxJobs)

	records, _ = newTestCascade(WithMaxJobs(5)).Extract(b.String(), "https://www.acme.com/careers", acme)
	assert.Len(t, records, 5)
}

func TestExtract_FiltersNoiseAndLength(t *testing.T) {
	long := strings.Repeat("a", 201)
	html := `<div class="job"><h2>View all jobs</h2></div>
		<div class="job"><h2>ab</h2></div>
		<div class="job"><h2>` + long + `</h2></div>
		<div class="job"><h2>Geologist</h2></div>`

	records, method := newTestCascade().Extract(html, "https://www.acme.com/careers", acme)

	assert.Equal(t, types.MethodGenericStructured, method)
	assert.Equal(t, []string{"Geologist"}, titles(records))
}

func TestExtract_RelativeURLsResolveAgainstOrigin(t *testing.T) {
	html := `<div class="posting"><h3>Drill Operator</h3><a href="jobs/42#apply">Apply</a></div>
		<div class="posting"><h3>Planner</h3><a href="javascript:void(0)">Apply</a></div>
		<div class="posting"><h3>Haul Truck Driver</h3><a href="//jobs.acme.com/7">Apply</a></div>`

	records, _ := newTestCascade().Extract(html, "https://www.acme.com/en/careers/list", acme)

	require.Len(t, records, 3)
	assert.Equal(t, "https://www.acme.com/jobs/42", records[0].ApplicationURL)
	assert.Equal(t, "https://www.acme.com/en/careers/list", records[1].ApplicationURL)
	assert.Equal(t, "https://jobs.acme.com/7", records[2].ApplicationURL)
}

func TestKeywordLinks_Only(t *testing.T) {
	html := `<div class="opening"><a href="/1">Senior Engineer</a></div>
		<a href="/2">Electrical Technician II</a>`

	records := newTestCascade().KeywordLinks(html, "https://www.acme.com/careers", acme)

	// The structured card is ignored; both anchors qualify on text alone
	assert.Equal(t, []string{"Senior Engineer", "Electrical Technician II"}, titles(records))
	for _, r := range records {
		assert.Equal(t, types.MethodKeywordLink, r.DiscoveryMethod)
	}
}

func TestWithRoleKeywords(t *testing.T) {
	html := `<a href="/1">Underground Miner Level 2</a>`

	records, _ := newTestCascade().Extract(html, "https://www.acme.com/careers", acme)
	assert.Empty(t, records)

	records, _ = newTestCascade(WithRoleKeywords([]string{"Miner"})).Extract(html, "https://www.acme.com/careers", acme)
	assert.Len(t, records, 1)
}

func TestAcceptableTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Engineer", true},
		{"abc", true},
		{"ab", false},
		{"Learn More", false},
		{"See all openings", false},
		{strings.Repeat("é", 200), true},
		{strings.Repeat("é", 201), false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, AcceptableTitle(tt.title))
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Senior Engineer", CleanText("  Senior\n\t  Engineer  "))
	assert.Equal(t, "", CleanText(" \n "))
}
