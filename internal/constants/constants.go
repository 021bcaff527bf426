package constants

// DepEnv identifies the package.json section a dependency was declared in.
type DepEnv string

const (
	PackageManager   DepEnv = "packageManager"
	Dependencies     DepEnv = "dependencies"
	DevDependencies  DepEnv = "devDependencies"
	PeerDependencies DepEnv = "peerDependencies"
)

func (t DepEnv) String() string {
	return string(t)
}

func (t DepEnv) ToEnv() string {
	switch t {
	case PackageManager:
		return "packageManager"
	case Dependencies:
		return "production"
	case DevDependencies:
		return "development"
	case PeerDependencies:
		return "peer"
	default:
		return ""
	}
}

const (
	RepoOwner = "devbump"
	RepoName  = "bumpall"
)

// ExitSoftware mirrors sysexits EX_SOFTWARE, returned when invoking the
// package manager fails.
const ExitSoftware = 70

const DefaultRegistry = "https://registry.npmjs.org/"
