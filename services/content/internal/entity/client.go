package entity

// Client is one tenant of the pipeline, loaded from the clients file.
type Client struct {
	ID         string         `mapstructure:"client_id" json:"client_id"`
	Name       string         `mapstructure:"name" json:"name"`
	Status     string         `mapstructure:"status" json:"status"`
	ChatID     string         `mapstructure:"chat_id" json:"chat_id"`
	Brand      Brand          `mapstructure:"brand" json:"brand"`
	Newsletter Newsletter     `mapstructure:"newsletter" json:"newsletter"`
	Report     ReportSettings `mapstructure:"report_settings" json:"report_settings"`
}

type Brand struct {
	Voice       string                    `mapstructure:"voice" json:"voice,omitempty"`
	MainProduct Product                   `mapstructure:"main_product" json:"main_product"`
	Socials     map[string]SocialSettings `mapstructure:"socials" json:"socials,omitempty"`
}

type Product struct {
	Name    string `mapstructure:"name" json:"name,omitempty"`
	CTAText string `mapstructure:"cta_text" json:"cta_text,omitempty"`
	CTAURL  string `mapstructure:"cta_url" json:"cta_url,omitempty"`
}

type SocialSettings struct {
	Enabled   *bool  `mapstructure:"enabled" json:"enabled,omitempty"`
	Voice     string `mapstructure:"voice" json:"voice,omitempty"`
	PostCount int    `mapstructure:"post_count" json:"post_count,omitempty"`
	Handle    string `mapstructure:"handle" json:"handle,omitempty"`
}

type Newsletter struct {
	PublicationID string `mapstructure:"publication_id" json:"publication_id,omitempty"`
	APIKey        string `mapstructure:"api_key" json:"-"`
}

type ReportSettings struct {
	Frequency string `mapstructure:"frequency" json:"frequency,omitempty"`
	Day       string `mapstructure:"day" json:"day,omitempty"`
	Time      string `mapstructure:"time" json:"time,omitempty"`
	Timezone  string `mapstructure:"timezone" json:"timezone,omitempty"`
}

// CTA is the call to action passed to the generator for posts that ask for one.
type CTA struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func (c *Client) IsActive() bool {
	return c.Status == "" || c.Status == "active"
}

// PostCount is how many posts to keep for platform; 1 unless configured.
func (c *Client) PostCount(platform string) int {
	if s, ok := c.Brand.Socials[platform]; ok && s.PostCount > 0 {
		return s.PostCount
	}
	return 1
}

// PlatformEnabled defaults to true for platforms without settings.
func (c *Client) PlatformEnabled(platform string) bool {
	if s, ok := c.Brand.Socials[platform]; ok && s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

func (c *Client) CTA() *CTA {
	p := c.Brand.MainProduct
	if p.CTAText == "" || p.CTAURL == "" {
		return nil
	}
	return &CTA{Text: p.CTAText, URL: p.CTAURL}
}
