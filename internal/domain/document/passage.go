package document

import (
	"fmt"
	"regexp"
)

var passageIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_:.-]+$`)

// MaxPassageSize is the maximum excerpt size in bytes accepted for indexing.
const MaxPassageSize = 163840 // 160KB

// Passage is an indexed excerpt of a source document, as loaded by ingestion.
type Passage struct {
	ID          string `json:"id"`
	S3Key       string `json:"s3_key"`
	Title       string `json:"title"`
	Page        string `json:"page"`
	DocCategory string `json:"doc_category"`
	State       string `json:"state"`
	County      string `json:"county"`
	Commodity   string `json:"commodity"`
	Content     string `json:"content"`
}

// Validate checks a passage before it is embedded and stored.
func (p *Passage) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("passage ID is required")
	}
	if len(p.ID) > 256 {
		return fmt.Errorf("passage ID too long (max 256)")
	}
	if !passageIDRegex.MatchString(p.ID) {
		return fmt.Errorf("passage ID %q has invalid characters", p.ID)
	}
	if p.S3Key == "" {
		return fmt.Errorf("passage %s: s3_key is required", p.ID)
	}
	if p.DocCategory == "" {
		return fmt.Errorf("passage %s: doc_category is required", p.ID)
	}
	if p.Content == "" {
		return fmt.Errorf("passage %s: content is required", p.ID)
	}
	if len(p.Content) > MaxPassageSize {
		return fmt.Errorf("passage %s: content too large (max %d bytes)", p.ID, MaxPassageSize)
	}
	return nil
}
