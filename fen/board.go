package fen

import (
	"fmt"
	"strconv"
	"strings"
)

// StartPos is the standard initial position.
const StartPos = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Board is a parsed FEN. Pos is indexed a8=0 .. h1=63, empty squares are ' '.
type Board struct {
	Pos             [64]byte
	ActiveColor     string
	Castling        string
	EnPassantSquare string
	HalfmoveClock   string
	FullMove        string
}

// Parse validates fen and returns its board. An empty string is the start
// position, missing move clocks default to "0 1".
func Parse(fen string) (Board, error) {
	if strings.TrimSpace(fen) == "" {
		fen = StartPos
	}
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return Board{}, fmt.Errorf("fen '%s': want 4 to 6 fields, got %d", fen, len(parts))
	}

	if len(parts) < 6 {
		if len(parts) < 5 {
			parts = append(parts, "0")
		}
		parts = append(parts, "1")
	}

	b := Board{
		ActiveColor:     parts[1],
		Castling:        parts[2],
		EnPassantSquare: parts[3],
		HalfmoveClock:   parts[4],
		FullMove:        parts[5],
	}

	if b.ActiveColor != "w" && b.ActiveColor != "b" {
		return Board{}, fmt.Errorf("fen '%s': invalid active color '%s'", fen, b.ActiveColor)
	}
	if strings.Trim(b.Castling, "KQkq") != "" && b.Castling != "-" {
		return Board{}, fmt.Errorf("fen '%s': invalid castling field '%s'", fen, b.Castling)
	}
	if b.EnPassantSquare != "-" && !isSquare(b.EnPassantSquare) {
		return Board{}, fmt.Errorf("fen '%s': invalid en passant square '%s'", fen, b.EnPassantSquare)
	}
	if _, err := strconv.Atoi(b.HalfmoveClock); err != nil {
		return Board{}, fmt.Errorf("fen '%s': halfmove clock: %v", fen, err)
	}
	if _, err := strconv.Atoi(b.FullMove); err != nil {
		return Board{}, fmt.Errorf("fen '%s': fullmove number: %v", fen, err)
	}

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return Board{}, fmt.Errorf("fen '%s': want 8 ranks, got %d", fen, len(ranks))
	}

	for i, rank := range ranks {
		offset := i * 8
		end := offset + 8
		for _, c := range []byte(rank) {
			if isDigit(c) {
				n := int(c - '0')
				if n == 0 || offset+n > end {
					return Board{}, fmt.Errorf("fen '%s': rank %d overflows", fen, 8-i)
				}
				for j := 0; j < n; j++ {
					b.Pos[offset] = ' '
					offset++
				}
				continue
			}
			if !isPiece(c) {
				return Board{}, fmt.Errorf("fen '%s': invalid piece '%c'", fen, c)
			}
			if offset >= end {
				return Board{}, fmt.Errorf("fen '%s': rank %d overflows", fen, 8-i)
			}
			b.Pos[offset] = c
			offset++
		}
		if offset != end {
			return Board{}, fmt.Errorf("fen '%s': rank %d has %d squares", fen, 8-i, 8-(end-offset))
		}
	}

	return b, nil
}

func (b *Board) FENNoMoveClocks() string {
	var fen strings.Builder
	for i := 0; i < 8; i++ {
		if fen.Len() != 0 {
			fen.WriteRune('/')
		}

		offset := i * 8
		blanks := 0

		for j := 0; j < 8; j++ {
			if b.Pos[offset+j] == ' ' {
				blanks++
				continue
			}

			if blanks != 0 {
				fen.WriteString(strconv.Itoa(blanks))
				blanks = 0
			}

			fen.WriteByte(b.Pos[offset+j])
		}

		if blanks != 0 {
			fen.WriteString(strconv.Itoa(blanks))
		}
	}

	fen.WriteString(fmt.Sprintf(" %s %s %s", b.ActiveColor, b.Castling, b.EnPassantSquare))

	return fen.String()
}

func (b *Board) FEN() string {
	return fmt.Sprintf("%s %s %s", b.FENNoMoveClocks(), b.HalfmoveClock, b.FullMove)
}

// Draw renders the board from white's point of view, rank 8 first.
func (b *Board) Draw() string {
	var sb strings.Builder
	sb.WriteString("   +-----------------+\n")
	for i := 0; i < 8; i++ {
		sb.WriteString(fmt.Sprintf(" %c | ", '8'-i))
		for j := 0; j < 8; j++ {
			c := b.Pos[i*8+j]
			if c == ' ' || c == 0 {
				c = '.'
			}
			sb.WriteByte(c)
			sb.WriteByte(' ')
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("   +-----------------+\n")
	sb.WriteString("     a b c d e f g h\n")
	sb.WriteString(fmt.Sprintf("   %s to move\n", colorName(b.ActiveColor)))
	return sb.String()
}

// Key returns the first four fields of fen, the part that identifies a position
// independently of the move clocks.
func Key(fen string) string {
	parts := strings.Fields(fen)
	if len(parts) > 4 {
		parts = parts[:4]
	}
	return strings.Join(parts, " ")
}

// IsStartPos reports whether fen is the initial position, ignoring move clocks.
func IsStartPos(fen string) bool {
	if strings.TrimSpace(fen) == "" {
		return true
	}
	return Key(fen) == Key(StartPos)
}

func colorName(activeColor string) string {
	if activeColor == "b" {
		return "black"
	}
	return "white"
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

func isPiece(c byte) bool {
	return strings.IndexByte("pnbrqkPNBRQK", c) >= 0
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
