package vanilla

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl templates/components/*.tmpl
var embeddedTemplates embed.FS

//go:embed assets/*
var embeddedAssets embed.FS

const (
	StylesheetName    = "formdemo.css"
	RuntimeScriptName = "formdemo.js"
)

// TemplatesFS exposes the embedded template bundle so callers can copy or
// override individual templates.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

// AssetsFS exposes the embedded CSS/JS so callers can serve them over HTTP.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}

func defaultStylesheet() string {
	data, err := fs.ReadFile(embeddedAssets, "assets/"+StylesheetName)
	if err != nil {
		return ""
	}
	return string(data)
}

func defaultRuntimeScript() string {
	data, err := fs.ReadFile(embeddedAssets, "assets/"+RuntimeScriptName)
	if err != nil {
		return ""
	}
	return string(data)
}
