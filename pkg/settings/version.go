package settings

// set by -ldflags "-X github.com/liut/typist/pkg/settings.version=..."
var version = "dev"
