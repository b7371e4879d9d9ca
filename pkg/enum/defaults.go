package enum

// DefaultExtensions are the source-code suffixes scanned by default.
var DefaultExtensions = []string{
	".py", ".pyw",
	".js", ".jsx", ".mjs", ".cjs",
	".ts", ".tsx",
	".java", ".kt", ".kts", ".scala", ".groovy",
	".go",
	".rb", ".erb",
	".php",
	".cs", ".vb", ".fs",
	".c", ".h", ".cc", ".cpp", ".cxx", ".hpp",
	".m", ".mm", ".swift",
	".rs",
	".dart",
	".lua", ".pl", ".pm", ".r",
	".ex", ".exs", ".clj",
	".sql",
	".sh", ".bash", ".zsh", ".ps1",
	".vue", ".svelte",
	".html", ".htm",
}

// DefaultExcludeDirs are directory names pruned from every walk.
var DefaultExcludeDirs = []string{
	".git",
	"node_modules",
	"__pycache__",
	".venv",
	"venv",
	"env",
	"dist",
	"build",
	".next",
	".nuxt",
	".cache",
	"vendor",
	"target",
	"coverage",
	".tox",
	".mypy_cache",
	".pytest_cache",
	".gradle",
	".idea",
	".vscode",
	"Pods",
}

// DefaultExcludeFiles are lockfiles and generated files that never hold
// application data.
var DefaultExcludeFiles = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"poetry.lock",
	"Pipfile.lock",
	"Cargo.lock",
	"Gemfile.lock",
	"composer.lock",
	"go.sum",
	".DS_Store",
	"Thumbs.db",
}

// DefaultExcludeExtensions are binary and bundled-asset suffixes.
var DefaultExcludeExtensions = []string{
	".min.js", ".min.css", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".svg", ".webp",
	".pdf", ".zip", ".gz", ".tgz", ".tar", ".7z", ".rar",
	".jar", ".war", ".class", ".pyc", ".pyo",
	".exe", ".dll", ".so", ".dylib", ".o", ".a",
	".woff", ".woff2", ".ttf", ".eot", ".otf",
	".mp3", ".mp4", ".mov", ".avi", ".wav",
	".lock",
}
