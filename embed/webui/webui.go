package webui

import "embed"

// Assets holds the static front end served at /.
//
//go:embed index.html app.js style.css
var Assets embed.FS
