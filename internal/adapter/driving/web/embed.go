package web

import "embed"

// StaticFS holds the embedded static assets (dashboard page, CSS, JS).
//
//go:embed static/*
var StaticFS embed.FS
