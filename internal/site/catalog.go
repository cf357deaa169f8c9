package site

import (
	"edgepick/internal/i18n"
	"edgepick/internal/urlutil"
)

// Profile is the card on the left of the page.
type Profile struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
}

// Social is an outbound profile link.
type Social struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Icon  string `json:"icon"`
}

// Tool is an entry of the tools section. A tool either has a fixed Href or
// is served by whichever tunnel endpoint is currently healthy, in which case
// Path is appended to that endpoint.
type Tool struct {
	ID           string
	TitleKey     string
	DescKey      string
	TagKey       string
	Icon         string
	Href         string
	Path         string
	NeedsBackend bool
}

// Article is an entry of the posts section.
type Article struct {
	TitleKey string
	Date     string
	Href     string
}

// Catalog is the static content of the landing page.
type Catalog struct {
	Profile  Profile
	Socials  []Social
	Tools    []Tool
	Articles []Article
}

// Default returns the landing page content.
func Default() *Catalog {
	return &Catalog{
		Profile: Profile{
			Name:   "name",
			Handle: "@cg0x",
			Bio:    "bio",
			Avatar: "/avatar.png",
		},
		Socials: []Social{
			{Label: "GitHub", Href: "https://github.com/cg0xC0DE", Icon: "github"},
			{Label: "X / Twitter", Href: "https://x.com/cg0xC0DE", Icon: "twitter"},
			{Label: "Email", Href: "mailto:hi@cg0x.ai", Icon: "mail"},
		},
		Tools: []Tool{
			{
				ID:       "paste",
				TitleKey: "tool.paste.title",
				DescKey:  "tool.paste.desc",
				TagKey:   "tagTool",
				Icon:     "clipboard",
				Href:     "/tools/paste",
			},
			{
				ID:           "link2asr",
				TitleKey:     "tool.link2asr.title",
				DescKey:      "tool.link2asr.desc",
				TagKey:       "tagTool",
				Icon:         "audio",
				Path:         "/link2asr",
				NeedsBackend: true,
			},
			{
				ID:           "civitai",
				TitleKey:     "tool.civitai.title",
				DescKey:      "tool.civitai.desc",
				TagKey:       "tagProject",
				Icon:         "sparkles",
				Path:         "/civitai",
				NeedsBackend: true,
			},
		},
		Articles: []Article{
			{TitleKey: "article.1.title", Date: "2026-02-10", Href: "#"},
			{TitleKey: "article.2.title", Date: "2026-01-28", Href: "#"},
			{TitleKey: "article.3.title", Date: "2026-01-15", Href: "#"},
		},
	}
}

// LinkStatus is the health indicator shown next to a tool link.
type LinkStatus string

const (
	StatusStatic  LinkStatus = "static"
	StatusProbing LinkStatus = "probing"
	StatusUp      LinkStatus = "up"
	StatusDown    LinkStatus = "down"
)

// ToolLink is a tool ready to render.
type ToolLink struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tag         string     `json:"tag"`
	Icon        string     `json:"icon"`
	Href        string     `json:"href,omitempty"`
	Enabled     bool       `json:"enabled"`
	Status      LinkStatus `json:"status"`
	StatusLabel string     `json:"status_label,omitempty"`
}

// Selection is what the page knows about the backend at render time.
type Selection struct {
	Probing  bool
	Endpoint string // Empty when no endpoint is healthy
}

// ResolveTools turns the catalog tools into links. Tools that need a backend
// are inert while probing and when no endpoint is healthy.
func (c *Catalog) ResolveTools(locale i18n.Locale, sel Selection) []ToolLink {
	links := make([]ToolLink, 0, len(c.Tools))
	for _, t := range c.Tools {
		link := ToolLink{
			ID:          t.ID,
			Title:       i18n.T(t.TitleKey, locale),
			Description: i18n.T(t.DescKey, locale),
			Tag:         i18n.T(t.TagKey, locale),
			Icon:        t.Icon,
		}
		switch {
		case !t.NeedsBackend:
			link.Href = t.Href
			link.Enabled = true
			link.Status = StatusStatic
		case sel.Probing:
			link.Status = StatusProbing
			link.StatusLabel = i18n.T("probing", locale)
		case sel.Endpoint != "":
			link.Href = urlutil.Join(sel.Endpoint, t.Path)
			link.Enabled = true
			link.Status = StatusUp
			link.StatusLabel = i18n.T("nodeUp", locale)
		default:
			link.Status = StatusDown
			link.StatusLabel = i18n.T("nodeDown", locale)
		}
		links = append(links, link)
	}
	return links
}

// ArticleLink is an article ready to render.
type ArticleLink struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Href  string `json:"href"`
}

// Footer holds the translated status bar and footer strings.
type Footer struct {
	Status     string `json:"status"`
	LastDeploy string `json:"last_deploy"`
	BuiltWith  string `json:"built_with"`
	DeployedOn string `json:"deployed_on"`
	SwitchLang string `json:"switch_lang"`
}

// Page is the localized landing page.
type Page struct {
	Locale        i18n.Locale   `json:"locale"`
	Profile       Profile       `json:"profile"`
	Socials       []Social      `json:"socials"`
	ToolsTitle    string        `json:"tools_title"`
	Tools         []ToolLink    `json:"tools"`
	ArticlesTitle string        `json:"articles_title"`
	Articles      []ArticleLink `json:"articles"`
	Footer        Footer        `json:"footer"`
}

// Render localizes the whole page for the given backend selection.
func (c *Catalog) Render(locale i18n.Locale, sel Selection) Page {
	p := Page{
		Locale: locale,
		Profile: Profile{
			Name:   i18n.T(c.Profile.Name, locale),
			Handle: c.Profile.Handle,
			Bio:    i18n.T(c.Profile.Bio, locale),
			Avatar: c.Profile.Avatar,
		},
		Socials:       c.Socials,
		ToolsTitle:    i18n.T("sectionTools", locale),
		Tools:         c.ResolveTools(locale, sel),
		ArticlesTitle: i18n.T("sectionPosts", locale),
		Footer: Footer{
			Status:     i18n.T("statusOk", locale),
			LastDeploy: i18n.T("lastDeploy", locale),
			BuiltWith:  i18n.T("builtWith", locale),
			DeployedOn: i18n.T("deployedOn", locale),
			SwitchLang: i18n.T("switchLang", locale),
		},
	}
	for _, a := range c.Articles {
		p.Articles = append(p.Articles, ArticleLink{Title: i18n.T(a.TitleKey, locale), Date: a.Date, Href: a.Href})
	}
	return p
}
