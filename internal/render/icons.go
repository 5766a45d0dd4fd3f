package render

import "strings"

const iconBase = "https://cdn.jsdelivr.net/gh/selfhst/icons/svg/"

// iconSlugs maps a compose project name, or one dash-separated part of it,
// to its icon slug.
var iconSlugs = map[string]string{
	// data
	"postgres":   "postgresql",
	"postgresql": "postgresql",
	"pg":         "postgresql",
	"mysql":      "mysql",
	"mariadb":    "mariadb",
	"redis":      "redis",
	"valkey":     "valkey",
	"mongo":      "mongodb",
	"mongodb":    "mongodb",
	"minio":      "minio",
	"qdrant":     "qdrant",

	// edge
	"nginx":   "nginx",
	"traefik": "traefik",
	"caddy":   "caddy",
	"proxy":   "nginx-proxy-manager",

	// observability
	"grafana":    "grafana",
	"prometheus": "prometheus",
	"loki":       "loki",
	"uptime":     "uptime-kuma",
	"netdata":    "netdata",

	// ai
	"ollama":    "ollama",
	"webui":     "open-webui",
	"openwebui": "open-webui",
	"comfyui":   "comfyui",
	"litellm":   "litellm",

	// apps
	"gitea":       "gitea",
	"n8n":         "n8n",
	"nextcloud":   "nextcloud",
	"immich":      "immich",
	"jellyfin":    "jellyfin",
	"vaultwarden": "vaultwarden",
	"homepage":    "homepage",
	"portainer":   "portainer",
	"ntfy":        "ntfy",
}

// LookupIcon returns the icon URL for a service. The whole name is tried
// first, then each dash-separated part from the last one backwards, so
// "genai-ollama" matches "ollama" before "genai".
func LookupIcon(name string) string {
	lower := strings.ToLower(name)
	if slug, ok := iconSlugs[lower]; ok {
		return iconBase + slug + ".svg"
	}

	parts := strings.Split(lower, "-")
	for i := len(parts) - 1; i >= 0; i-- {
		if slug, ok := iconSlugs[parts[i]]; ok {
			return iconBase + slug + ".svg"
		}
	}
	return ""
}
