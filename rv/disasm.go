package rv

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/riscv64/riscv64asm"
)

// Disassemble renders code as one line per instruction, addressed from base.
// Words the decoder does not recognize are printed as .word directives.
func Disassemble(code []byte, base uint64) []string {
	var lines []string
	for off := 0; off+4 <= len(code); off += 4 {
		word := binary.LittleEndian.Uint32(code[off:])
		text := fmt.Sprintf(".word 0x%08x", word)
		if inst, err := riscv64asm.Decode(code[off : off+4]); err == nil {
			text = riscv64asm.GNUSyntax(inst)
		}
		lines = append(lines, fmt.Sprintf("0x%08x: %08x  %s", base+uint64(off), word, text))
	}
	return lines
}
