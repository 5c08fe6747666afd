package config

// DefaultIncludePatterns returns the source file globs crawled when the user
// has not configured any.
func DefaultIncludePatterns() []string {
	return []string{
		"*.py", "*.js", "*.jsx", "*.ts", "*.tsx", "*.go", "*.java", "*.pyi", "*.pyx",
		"*.c", "*.cc", "*.cpp", "*.h", "*.md", "*.rst", "Dockerfile", "Makefile",
		"*.yaml", "*.yml",
	}
}

// DefaultExcludePatterns returns globs for vendored, generated and test
// content that rarely helps a tutorial.
func DefaultExcludePatterns() []string {
	return []string{
		"assets/*", "data/*", "examples/*", "images/*", "public/*", "static/*", "temp/*",
		"docs/*", "*.env", "*.env.*", "*.lock", "venv/*", ".venv/*", "*test*", "tests/*",
		"v1/*", "dist/*", "build/*", "experimental/*", "deprecated/*", "misc/*", "legacy/*",
		".git/*", ".github/*", ".next/*", ".vscode/*", "obj/*", "bin/*", "node_modules/*",
		"*.log",
	}
}
