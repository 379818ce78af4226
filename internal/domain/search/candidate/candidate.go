package candidate

// Index field names of a passage record.
const (
	FieldSourceKey   = "s3_key"
	FieldTitle       = "title"
	FieldPage        = "page"
	FieldDocCategory = "doc_category"
	FieldState       = "state"
	FieldCounty      = "county"
	FieldCommodity   = "commodity"
	FieldContent     = "content"
	FieldVector      = "vector"
)

// Candidate is one raw hit from the passage index, before deduplication and formatting.
type Candidate struct {
	id          string
	score       float64
	sourceKey   string
	title       string
	page        string
	docCategory string
	state       string
	county      string
	commodity   string
	content     string
}

// New creates a candidate from index fields.
func New(id string, score float64, fields map[string]string) Candidate {
	return Candidate{
		id:          id,
		score:       score,
		sourceKey:   fields[FieldSourceKey],
		title:       fields[FieldTitle],
		page:        fields[FieldPage],
		docCategory: fields[FieldDocCategory],
		state:       fields[FieldState],
		county:      fields[FieldCounty],
		commodity:   fields[FieldCommodity],
		content:     fields[FieldContent],
	}
}

// ID returns the passage identifier in the index.
func (c *Candidate) ID() string { return c.id }

// Score returns the similarity score (higher is closer).
func (c *Candidate) Score() float64 { return c.score }

// SourceKey returns the identity key of the source document.
func (c *Candidate) SourceKey() string { return c.sourceKey }

// Title returns the source document title.
func (c *Candidate) Title() string { return c.title }

// Page returns the page reference of the passage.
func (c *Candidate) Page() string { return c.page }

// DocCategory returns the document category code.
func (c *Candidate) DocCategory() string { return c.docCategory }

// State returns the state code.
func (c *Candidate) State() string { return c.state }

// County returns the county code.
func (c *Candidate) County() string { return c.county }

// Commodity returns the commodity code.
func (c *Candidate) Commodity() string { return c.commodity }

// Content returns the indexed excerpt.
func (c *Candidate) Content() string { return c.content }
