package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported display language.
type Locale string

const (
	EN Locale = "en"
	ZH Locale = "zh"
)

// Supported lists the locales in matcher preference order; the first is the
// fallback.
var Supported = []Locale{EN, ZH}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Chinese})

var dict = map[string]map[Locale]string{
	"name": {EN: "ChangGe", ZH: "长歌"},
	"bio": {
		EN: "Builder · Tinkerer · Minimalist\nIndie Dev · AI Artist · Crafting Tools",
		ZH: "独立开发者 / AI美学探索者 / 自媒体\n折腾工具，探索美学，极简主义。",
	},
	"wechatQR": {
		EN: "Scan the art QR code above\nor add ",
		ZH: "扫描上方艺术二维码\n或添加 ",
	},

	"sectionTools":    {EN: "Tools & Projects", ZH: "工具 & 项目"},
	"tool.paste.title": {EN: "Paste", ZH: "Paste 剪贴板"},
	"tool.paste.desc": {
		EN: "Lightweight online clipboard with syntax highlighting & temp sharing",
		ZH: "轻量在线剪贴板，支持代码高亮与临时分享",
	},
	"tool.link2asr.title": {EN: "Link2ASR", ZH: "Link2ASR 语音转写"},
	"tool.link2asr.desc": {
		EN: "Paste a link, auto-extract audio and transcribe to text",
		ZH: "粘贴链接，自动提取音频并转写为文字",
	},
	"tool.civitai.title": {EN: "Civitai Aesthetics", ZH: "Civitai 美学探索"},
	"tool.civitai.desc": {
		EN: "AI aesthetics analysis workbench for Civitai models & images",
		ZH: "AI 美学分析工作台，探索 Civitai 模型与图像美学",
	},
	"tagTool":    {EN: "Tool", ZH: "工具"},
	"tagProject": {EN: "Project", ZH: "项目"},

	"probing":  {EN: "Probing…", ZH: "探测中…"},
	"nodeUp":   {EN: "Node available", ZH: "节点可用"},
	"nodeDown": {EN: "Node offline", ZH: "节点离线"},

	"sectionPosts": {EN: "Recent Posts", ZH: "近期文章"},
	"article.1.title": {
		EN: "Building a Minimal CLI in Rust",
		ZH: "用 Rust 构建极简 CLI 工具",
	},
	"article.2.title": {
		EN: "Why I Moved to Azure Static Web Apps",
		ZH: "为什么我迁移到 Azure 静态网站",
	},
	"article.3.title": {
		EN: "Reverse Engineering a Smart Lock Protocol",
		ZH: "逆向工程一个智能门锁协议",
	},

	"statusOk":   {EN: "All systems operational", ZH: "全部系统运行正常"},
	"lastDeploy": {EN: "Last deploy: just now", ZH: "最近部署：刚刚"},
	"builtWith":  {EN: "Built with", ZH: "构建于"},
	"deployedOn": {EN: "Deployed on", ZH: "部署于"},
	"switchLang": {EN: "中", ZH: "EN"},
}

// T returns the translation of key. Unknown keys come back unchanged, and a
// key missing in locale falls back to English.
func T(key string, locale Locale) string {
	entry, ok := dict[key]
	if !ok {
		return key
	}
	if s, ok := entry[locale]; ok {
		return s
	}
	return entry[EN]
}

// Has reports whether key is in the dictionary.
func Has(key string) bool {
	_, ok := dict[key]
	return ok
}

// Parse maps an explicit locale name ("zh", "zh-CN", "EN") to a supported
// locale.
func Parse(s string) (Locale, bool) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return EN, false
	}
	base, _ := tag.Base()
	for _, l := range Supported {
		if base.String() == string(l) {
			return l, true
		}
	}
	return EN, false
}

// Match picks the display locale: an explicit query value wins, then the
// Accept-Language header, then English.
func Match(query, acceptLanguage string) Locale {
	if query != "" {
		if l, ok := Parse(query); ok {
			return l
		}
	}
	if acceptLanguage == "" {
		return EN
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return EN
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return EN
	}
	return Supported[idx]
}
