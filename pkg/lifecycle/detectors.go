package lifecycle

// PackageManagerDetector inspects a command's argv and, if it
// recognizes the invoked package manager, reports its name. Rather than
// a hard-coded string comparison against "npm", the manifest/dependency
// preflight step consults a pluggable list of these predicates.
type PackageManagerDetector func(argv []string) (manager string, ok bool)

// DefaultPackageManagerDetectors recognizes the package managers in
// common use for Node.js projects.
var DefaultPackageManagerDetectors = []PackageManagerDetector{
	detectNPM,
	detectYarn,
	detectPnpm,
}

func detectNPM(argv []string) (string, bool) {
	if len(argv) == 0 {
		return "", false
	}
	switch argv[0] {
	case "npm", "npx":
		return "npm", true
	}
	return "", false
}

func detectYarn(argv []string) (string, bool) {
	if len(argv) == 0 {
		return "", false
	}
	if argv[0] == "yarn" {
		return "yarn", true
	}
	return "", false
}

func detectPnpm(argv []string) (string, bool) {
	if len(argv) == 0 {
		return "", false
	}
	if argv[0] == "pnpm" {
		return "pnpm", true
	}
	return "", false
}

// detectPackageManager runs every detector in order and returns the
// first match.
func detectPackageManager(detectors []PackageManagerDetector, argv []string) (string, bool) {
	for _, d := range detectors {
		if manager, ok := d(argv); ok {
			return manager, true
		}
	}
	return "", false
}

// lockfileManager infers the package manager from which lockfile is
// present, used to advertise the right install command on QL-MOD-001.
func lockfileManager(path string, exists func(string) bool) string {
	if exists(path + "/yarn.lock") {
		return "yarn"
	}
	if exists(path + "/pnpm-lock.yaml") {
		return "pnpm"
	}
	return "npm"
}
