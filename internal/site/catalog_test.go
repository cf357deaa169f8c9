package site

import (
	"testing"

	"edgepick/internal/i18n"
)

func findLink(t *testing.T, links []ToolLink, id string) ToolLink {
	t.Helper()
	for _, l := range links {
		if l.ID == id {
			return l
		}
	}
	t.Fatalf("tool %s not found", id)
	return ToolLink{}
}

func TestResolveTools(t *testing.T) {
	c := Default()

	t.Run("probing disables backend tools", func(t *testing.T) {
		links := c.ResolveTools(i18n.EN, Selection{Probing: true})
		asr := findLink(t, links, "link2asr")
		if asr.Enabled || asr.Href != "" || asr.Status != StatusProbing {
			t.Errorf("expected inert probing link, got %+v", asr)
		}
		if asr.StatusLabel != "Probing…" {
			t.Errorf("unexpected label %q", asr.StatusLabel)
		}
		paste := findLink(t, links, "paste")
		if !paste.Enabled || paste.Status != StatusStatic || paste.Href != "/tools/paste" {
			t.Errorf("static tools bypass the prober, got %+v", paste)
		}
	})

	t.Run("healthy endpoint builds href", func(t *testing.T) {
		links := c.ResolveTools(i18n.ZH, Selection{Endpoint: "https://a.example"})
		civitai := findLink(t, links, "civitai")
		if !civitai.Enabled || civitai.Href != "https://a.example/civitai" || civitai.Status != StatusUp {
			t.Errorf("expected enabled link, got %+v", civitai)
		}
		if civitai.StatusLabel != "节点可用" {
			t.Errorf("expected zh label, got %q", civitai.StatusLabel)
		}
	})

	t.Run("no endpoint disables backend tools", func(t *testing.T) {
		links := c.ResolveTools(i18n.EN, Selection{})
		asr := findLink(t, links, "link2asr")
		if asr.Enabled || asr.Href != "" || asr.Status != StatusDown {
			t.Errorf("expected disabled link, got %+v", asr)
		}
	})
}

func TestRender(t *testing.T) {
	p := Default().Render(i18n.ZH, Selection{Probing: true})
	if p.Profile.Name != "长歌" {
		t.Errorf("expected zh name, got %q", p.Profile.Name)
	}
	if len(p.Articles) != 3 || p.Articles[0].Date != "2026-02-10" {
		t.Errorf("unexpected articles: %+v", p.Articles)
	}
	if p.Footer.SwitchLang != "EN" {
		t.Errorf("expected switch label EN, got %q", p.Footer.SwitchLang)
	}
	if len(p.Tools) != 3 {
		t.Errorf("expected 3 tools, got %d", len(p.Tools))
	}
}

func TestCatalogKeysTranslate(t *testing.T) {
	c := Default()
	for _, tool := range c.Tools {
		for _, key := range []string{tool.TitleKey, tool.DescKey, tool.TagKey} {
			if !i18n.Has(key) {
				t.Errorf("tool %s: missing translation key %q", tool.ID, key)
			}
		}
	}
	for _, a := range c.Articles {
		if !i18n.Has(a.TitleKey) {
			t.Errorf("missing translation key %q", a.TitleKey)
		}
	}
}
