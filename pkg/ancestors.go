package hepmc

import "fmt"

const DefaultDistanceThreshold = 1e-5

// GetAncestors walks up the production chain of p and returns it in postorder:
// the ancestors first, p itself last. The walk stops at any production vertex
// within threshold of the origin.
func GetAncestors(p *Particle, threshold float64) ([]*Particle, error) {
	if threshold < 0 {
		return nil, ErrNegativeThreshold
	}
	return collectAncestors(p, threshold*threshold, make(map[*Particle]bool))
}

func collectAncestors(p *Particle, threshold2 float64, onPath map[*Particle]bool) ([]*Particle, error) {
	if onPath[p] {
		return nil, fmt.Errorf("%w: %v is its own ancestor", ErrAncestorCycle, p)
	}
	var ancestors []*Particle
	if v := p.StartVertex(); v != nil && v.Position.Rho2() > threshold2 {
		onPath[p] = true
		for _, parent := range v.Parents() {
			chain, err := collectAncestors(parent, threshold2, onPath)
			if err != nil {
				return nil, err
			}
			ancestors = append(ancestors, chain...)
		}
		delete(onPath, p)
	}
	return append(ancestors, p), nil
}

// StableParticles returns the final-state particles of evt whose transverse
// momentum is at least ptCutoff, ordered by barcode.
func StableParticles(evt *Event, ptCutoff float64) []*Particle {
	var stable []*Particle
	for _, p := range evt.Particles() {
		if p.Status != 1 {
			continue
		}
		if p.Momentum.Pt() < ptCutoff {
			continue
		}
		stable = append(stable, p)
	}
	return stable
}

// InterestingParticles returns the stable particles above ptCutoff and,
// separately, the ancestors of each of them (without the particle itself).
func InterestingParticles(evt *Event, ptCutoff, threshold float64) (stable, ancestors []*Particle, err error) {
	stable = StableParticles(evt, ptCutoff)
	for _, p := range stable {
		chain, err := GetAncestors(p, threshold)
		if err != nil {
			return nil, nil, err
		}
		ancestors = append(ancestors, chain[:len(chain)-1]...)
	}
	return stable, ancestors, nil
}

// Category groups particle codes the way the event display colours them.
func Category(pid int) string {
	if pid < 0 {
		pid = -pid
	}
	switch pid {
	case 22:
		return "pho"
	case 11, 13, 15:
		return "lep"
	case 12, 14, 16:
		return "nu"
	}
	return "had"
}
