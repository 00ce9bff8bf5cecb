package universe

import "github.com/san-kum/transmute/internal/isotope"

// Range is the inclusive span of tracked ground-state mass numbers for one element.
type Range struct {
	MinA, MaxA int
}

// RangeTable maps atomic number to its tracked mass-number range.
type RangeTable map[int]Range

// MetastableTable maps atomic number to its tracked metastable isotopes.
type MetastableTable map[int][]isotope.ID

var defaultRanges = [isotope.MaxZ + 1]Range{
	{},
	{1, 7}, {3, 10}, {3, 13}, {5, 16}, {6, 21},
	{8, 23}, {10, 25}, {12, 28}, {14, 31}, {16, 34},
	{18, 39}, {19, 41}, {21, 43}, {22, 45}, {24, 47},
	{26, 49}, {28, 52}, {29, 54}, {31, 57}, {34, 60},
	{36, 62}, {38, 64}, {40, 67}, {42, 70}, {44, 72},
	{45, 75}, {48, 78}, {48, 82}, {52, 84}, {54, 87},
	{56, 89}, {58, 91}, {60, 94}, {64, 97}, {66, 100},
	{67, 103}, {71, 106}, {73, 108}, {76, 111}, {78, 114},
	{81, 117}, {83, 119}, {85, 122}, {87, 125}, {89, 128},
	{91, 131}, {93, 133}, {95, 136}, {97, 138}, {99, 140},
	{103, 142}, {104, 145}, {106, 147}, {108, 150}, {110, 152},
	{112, 155}, {114, 157}, {116, 160}, {118, 162}, {120, 164},
	{124, 166}, {126, 168}, {129, 170}, {131, 172}, {133, 174},
	{135, 176}, {137, 178}, {139, 180}, {141, 182}, {143, 185},
	{145, 188}, {147, 190}, {150, 194}, {152, 197}, {154, 199},
	{156, 203}, {158, 205}, {160, 208}, {162, 210}, {164, 216},
	{176, 218}, {178, 220}, {184, 224}, {186, 227}, {191, 229},
	{193, 231}, {197, 233}, {201, 235}, {205, 236}, {208, 238},
	{211, 239}, {215, 242}, {219, 244}, {228, 247}, {229, 249},
	{233, 252}, {235, 254}, {237, 256}, {240, 257}, {241, 259},
}

var defaultMetastables = []string{
	"Al26m", "Cl34m", "Sc44m", "Sc46m", "Mn52m", "Co58m", "Co60m",
	"Zn69m", "Zn71m", "Ge73m", "Se77m", "Se79m", "Se81m", "Br80m", "Br82m",
	"Kr81m", "Kr83m", "Kr85m", "Rb84m", "Rb86m", "Sr85m", "Sr87m",
	"Y87m", "Y89m", "Y90m", "Y91m", "Zr89m", "Nb91m", "Nb93m", "Nb94m", "Nb95m", "Nb97m",
	"Mo93m", "Tc95m", "Tc97m", "Tc99m",
	"Rh101m", "Rh102m", "Rh103m", "Rh104m", "Rh105m", "Rh106m", "Pd107m", "Pd109m",
	"Ag105m", "Ag106m", "Ag108m", "Ag109m", "Ag110m", "Ag111m",
	"Cd111m", "Cd113m", "Cd115m", "Cd117m",
	"In111m", "In113m", "In114m", "In115m", "In116m", "In117m",
	"Sn113m", "Sn117m", "Sn119m", "Sn121m", "Sn123m", "Sn125m",
	"Sb120m", "Sb122m", "Sb124m", "Sb124m2", "Sb126m",
	"Te121m", "Te123m", "Te125m", "Te127m", "Te129m", "Te131m", "Te133m",
	"I130m", "I132m", "I134m",
	"Xe125m", "Xe127m", "Xe129m", "Xe131m", "Xe133m", "Xe135m",
	"Cs134m", "Cs135m", "Ba133m", "Ba135m", "Ba137m",
	"Pr144m", "Nd139m", "Pm148m", "Eu150m", "Eu152m", "Eu152m2", "Eu154m",
	"Tb156m", "Ho166m", "Lu174m", "Lu177m",
	"Hf178m", "Hf178m2", "Hf179m", "Hf180m", "Ta180m", "Re186m", "Os190m",
	"Ir192m", "Ir192m2", "Ir194m", "Pt193m", "Pt195m", "Au195m", "Au198m", "Hg195m", "Hg197m",
	"Pb204m", "Bi210m", "Bi212m", "Po211m", "Po212m",
	"Pa234m", "U235m", "Np236m", "Np240m", "Am242m", "Am244m", "Es254m",
}

// DefaultRanges returns a fresh copy of the built-in range table for z = 1..100.
func DefaultRanges() RangeTable {
	t := make(RangeTable, isotope.MaxZ)
	for z := 1; z <= isotope.MaxZ; z++ {
		t[z] = defaultRanges[z]
	}
	return t
}

// DefaultMetastables returns a fresh copy of the built-in metastable table.
func DefaultMetastables() MetastableTable {
	t := make(MetastableTable)
	for _, name := range defaultMetastables {
		id := isotope.MustParse(name)
		t[id.Z()] = append(t[id.Z()], id)
	}
	return t
}
