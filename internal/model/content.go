package model

// SiteContent is the singleton display-copy record (row id "main" in
// the `site_content` table). It carries no workflow; the operator may
// edit it freely.
type SiteContent struct {
	ID           string `json:"id"`            // site_content.id, always "main"
	HeroTitle    string `json:"hero_title"`    // site_content.hero_title
	HeroSubtitle string `json:"hero_subtitle"` // site_content.hero_subtitle
	ReleaseDate  string `json:"release_date"`  // site_content.release_date
}

// DefaultSiteContent is written on first startup when the singleton
// row does not exist yet.
var DefaultSiteContent = SiteContent{
	ID:           "main",
	HeroTitle:    "ArBrowser",
	HeroSubtitle: "Браузер нового поколения",
	ReleaseDate:  "Декабрь 2025",
}
