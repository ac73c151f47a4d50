package config

// Matrix enumerates every supported combination of choices for the given
// project name. The order is stable.
func Matrix(project string) []Configuration {
	var out []Configuration
	bools := []bool{false, true}
	for _, pm := range PackageManagers {
		for _, css := range CSSStrategies {
			for _, ts := range bools {
				for _, router := range bools {
					for _, store := range bools {
						for _, linter := range bools {
							for _, hooks := range bools {
								out = append(out, Configuration{
									ProjectName:    project,
									PackageManager: pm,
									TypeScript:     ts,
									Router:         router,
									Store:          store,
									Linter:         linter,
									GitHooks:       hooks,
									CSS:            css,
								}.Normalize())
							}
						}
					}
				}
			}
		}
	}
	return out
}
