package common

import "testing"

func TestFENRoundTrip(t *testing.T) {
	var fens = []string{
		InitialPositionFen,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 1",
		"8/8/8/8/8/5k2/8/5K2 b - - 10 6",
	}
	for _, fen := range fens {
		var p, err = NewPositionFromFEN(fen)
		if err != nil {
			t.Fatal(fen, err)
		}
		if p.String() != fen {
			t.Error(fen, p.String())
		}
	}
}

func TestBadFEN(t *testing.T) {
	var fens = []string{
		"",
		"8/8/8/8 w - -",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQ1BNR w - - 0 1",
		// side not to move is in check
		"4k3/8/8/8/8/8/4R3/4K3 w - - 0 1",
	}
	for _, fen := range fens {
		if _, err := NewPositionFromFEN(fen); err == nil {
			t.Error("expected error", fen)
		}
	}
}

func TestStatus(t *testing.T) {
	var tests = []struct {
		fen          string
		checkmate    bool
		stalemate    bool
		insufficient bool
	}{
		{InitialPositionFen, false, false, false},
		// fool's mate
		{"rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", true, false, false},
		{"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, true, false},
		{"8/8/4k3/8/8/3K4/8/8 w - - 0 1", false, false, true},
		{"8/8/4k3/8/8/3K4/5N2/8 w - - 0 1", false, false, true},
		{"8/8/3bk3/8/8/3K4/5B2/8 w - - 0 1", false, false, true},
		{"8/8/2b1k3/8/8/3K4/5B2/8 w - - 0 1", false, false, false},
		{"8/8/4k3/8/8/3K4/4NN2/8 w - - 0 1", false, false, false},
		{"8/8/4k3/8/8/3K4/4P3/8 w - - 0 1", false, false, false},
	}
	for _, test := range tests {
		var p, err = NewPositionFromFEN(test.fen)
		if err != nil {
			t.Fatal(test.fen, err)
		}
		if p.IsCheckmate() != test.checkmate ||
			p.IsStalemate() != test.stalemate ||
			p.IsInsufficientMaterial() != test.insufficient {
			t.Error(test.fen, p.IsCheckmate(), p.IsStalemate(), p.IsInsufficientMaterial())
		}
	}
}

func TestMakeMoveLAN(t *testing.T) {
	var p, err = NewPositionFromFEN(InitialPositionFen)
	if err != nil {
		t.Fatal(err)
	}
	for _, lan := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "e1g1"} {
		var ok bool
		p, ok = p.MakeMoveLAN(lan)
		if !ok {
			t.Fatal(lan)
		}
	}
	const want = "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQ1RK1 b kq - 5 3"
	if p.String() != want {
		t.Error(p.String())
	}
	if _, ok := p.MakeMoveLAN("e1g1"); ok {
		t.Error("illegal move accepted")
	}
}
