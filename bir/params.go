package bir

import "github.com/sarchlab/rhdl/rtlerr"

// ResolveParameters resolves every parameter of c, direct ones first,
// then derived ones in dependency order (spec §3: "Derived parameters
// are resolved after direct parameters in dependency order; cycles are
// errors"). Returns a name->value map or a ParameterResolutionError
// naming the offending cycle.
func ResolveParameters(c *Component) (map[string]int64, error) {
	resolved := make(map[string]int64, len(c.Parameters))
	byName := make(map[string]*Parameter, len(c.Parameters))
	for i := range c.Parameters {
		byName[c.Parameters[i].Name] = &c.Parameters[i]
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(c.Parameters))

	var path []string
	var resolve func(name string) error
	resolve = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return &rtlerr.ParameterResolutionError{
				Path:  c.Name + "." + name,
				Cycle: append(append([]string{}, path...), name),
			}
		}

		p, ok := byName[name]
		if !ok {
			return &rtlerr.ParameterResolutionError{Path: c.Name + "." + name}
		}

		state[name] = visiting
		path = append(path, name)

		if p.Literal {
			resolved[name] = p.Value
		} else {
			for _, dep := range p.DependsOn {
				if err := resolve(dep); err != nil {
					return err
				}
			}
			env := MapEnv{}
			for k, v := range resolved {
				env[k] = uint64(v)
			}
			resolved[name] = int64(p.Derive.Eval(env))
		}

		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, p := range c.Parameters {
		if err := resolve(p.Name); err != nil {
			return nil, err
		}
	}

	return resolved, nil
}
