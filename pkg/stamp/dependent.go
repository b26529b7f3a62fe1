package stamp

import "github.com/edp1096/spicesim/pkg/matrix"

// CCCS stamps a current gain*i(ref) flowing from A to B, where ref is the
// branch variable of the sensing voltage source.
type CCCS struct {
	A, B int
	Ref  int
}

func (s *CCCS) Register(_ *matrix.Builder[float64], a, b, ref int) error {
	s.A, s.B, s.Ref = a, b, ref
	return nil
}

func (s *CCCS) Stamp(sys *matrix.System, gain float64) error {
	if err := checkFinite(s.A, s.Ref, gain); err != nil {
		return err
	}
	return apply(sys, entry{s.A, s.Ref, gain}, entry{s.B, s.Ref, -gain})
}

// CCVS stamps v(A) - v(B) = gain*i(ref).
type CCVS struct {
	Voltage
	Ref int
}

func (s *CCVS) Register(b *matrix.Builder[float64], pos, neg, ref int) error {
	s.Ref = ref
	return s.Voltage.Register(b, pos, neg)
}

func (s *CCVS) Stamp(sys *matrix.System, gain float64) error {
	if err := checkFinite(s.branch, s.Ref, gain); err != nil {
		return err
	}
	if err := s.incidence(sys); err != nil {
		return err
	}
	return sys.AddMatrixEntry(s.branch, s.Ref, -gain)
}

// VCCS stamps a current gm*(v(CP) - v(CN)) flowing from A to B.
type VCCS struct {
	A, B   int
	CP, CN int
}

func (s *VCCS) Register(_ *matrix.Builder[float64], a, b, cp, cn int) error {
	s.A, s.B, s.CP, s.CN = a, b, cp, cn
	return nil
}

func (s *VCCS) Stamp(sys *matrix.System, gm float64) error {
	if err := checkFinite(s.A, s.CP, gm); err != nil {
		return err
	}
	return apply(sys,
		entry{s.A, s.CP, gm}, entry{s.A, s.CN, -gm},
		entry{s.B, s.CP, -gm}, entry{s.B, s.CN, gm},
	)
}

// VCVS stamps v(A) - v(B) = gain*(v(CP) - v(CN)).
type VCVS struct {
	Voltage
	CP, CN int
}

func (s *VCVS) Register(b *matrix.Builder[float64], pos, neg, cp, cn int) error {
	s.CP, s.CN = cp, cn
	return s.Voltage.Register(b, pos, neg)
}

func (s *VCVS) Stamp(sys *matrix.System, gain float64) error {
	if err := checkFinite(s.branch, s.CP, gain); err != nil {
		return err
	}
	if err := s.incidence(sys); err != nil {
		return err
	}
	return apply(sys, entry{s.branch, s.CP, -gain}, entry{s.branch, s.CN, gain})
}
