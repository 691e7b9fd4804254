package hepmc

// ParticleTable answers particle-property questions by PDG code. A missing
// entry means the charge is unknown and the reader falls back to zero.
type ParticleTable interface {
	Charge(pid int) (float64, bool)
}

type ParticleData struct {
	Name   string
	Charge float64
	Mass   float64
}

// MapParticleTable stores particles only; antiparticles are looked up through
// the absolute code and get the opposite charge.
type MapParticleTable map[int]ParticleData

func (t MapParticleTable) Lookup(pid int) (ParticleData, bool) {
	if data, ok := t[pid]; ok {
		return data, true
	}
	if pid < 0 {
		if data, ok := t[-pid]; ok {
			data.Name = "anti-" + data.Name
			data.Charge = -data.Charge
			return data, true
		}
	}
	return ParticleData{}, false
}

func (t MapParticleTable) Charge(pid int) (float64, bool) {
	data, ok := t.Lookup(pid)
	return data.Charge, ok
}

// BuiltinParticleTable covers the codes generators write most often. Masses
// in GeV.
var BuiltinParticleTable = MapParticleTable{
	1:    {"d", -1.0 / 3, 0.00467},
	2:    {"u", 2.0 / 3, 0.00216},
	3:    {"s", -1.0 / 3, 0.0934},
	4:    {"c", 2.0 / 3, 1.27},
	5:    {"b", -1.0 / 3, 4.18},
	6:    {"t", 2.0 / 3, 172.69},
	11:   {"e-", -1, 0.000511},
	12:   {"nu_e", 0, 0},
	13:   {"mu-", -1, 0.105658},
	14:   {"nu_mu", 0, 0},
	15:   {"tau-", -1, 1.77686},
	16:   {"nu_tau", 0, 0},
	21:   {"g", 0, 0},
	22:   {"gamma", 0, 0},
	23:   {"Z0", 0, 91.1876},
	24:   {"W+", 1, 80.377},
	25:   {"h0", 0, 125.25},
	111:  {"pi0", 0, 0.134977},
	113:  {"rho0", 0, 0.77526},
	130:  {"K_L0", 0, 0.497611},
	211:  {"pi+", 1, 0.139570},
	213:  {"rho+", 1, 0.77511},
	221:  {"eta", 0, 0.547862},
	223:  {"omega", 0, 0.78266},
	310:  {"K_S0", 0, 0.497611},
	311:  {"K0", 0, 0.497611},
	321:  {"K+", 1, 0.493677},
	331:  {"eta'", 0, 0.95778},
	333:  {"phi", 0, 1.019461},
	411:  {"D+", 1, 1.86966},
	421:  {"D0", 0, 1.86484},
	431:  {"D_s+", 1, 1.96835},
	443:  {"J/psi", 0, 3.096900},
	511:  {"B0", 0, 5.27965},
	521:  {"B+", 1, 5.27934},
	531:  {"B_s0", 0, 5.36688},
	553:  {"Upsilon", 0, 9.46030},
	2112: {"n", 0, 0.939565},
	2212: {"p", 1, 0.938272},
	3112: {"Sigma-", -1, 1.197449},
	3122: {"Lambda", 0, 1.115683},
	3212: {"Sigma0", 0, 1.192642},
	3222: {"Sigma+", 1, 1.18937},
	3312: {"Xi-", -1, 1.32171},
	3322: {"Xi0", 0, 1.31486},
	3334: {"Omega-", -1, 1.67245},
}
