// Package emu provides functional RV64 emulation.
package emu

// LoadStoreUnit implements RV64 load and store operations.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

func (lsu *LoadStoreUnit) addr(rs1 uint8, offset int64) uint64 {
	return lsu.regFile.ReadReg(rs1) + uint64(offset)
}

// LW performs a sign-extending 32-bit load: xd = sext(mem[xs1 + offset]).
func (lsu *LoadStoreUnit) LW(rd, rs1 uint8, offset int64) {
	lsu.regFile.WriteReg32(rd, lsu.memory.Read32(lsu.addr(rs1, offset)))
}

// LWU performs a zero-extending 32-bit load: xd = zext(mem[xs1 + offset]).
func (lsu *LoadStoreUnit) LWU(rd, rs1 uint8, offset int64) {
	lsu.regFile.WriteReg(rd, uint64(lsu.memory.Read32(lsu.addr(rs1, offset))))
}

// LD performs a 64-bit load: xd = mem[xs1 + offset].
func (lsu *LoadStoreUnit) LD(rd, rs1 uint8, offset int64) {
	lsu.regFile.WriteReg(rd, lsu.memory.Read64(lsu.addr(rs1, offset)))
}

// SW performs a 32-bit store: mem[xs1 + offset] = xs2[31:0].
func (lsu *LoadStoreUnit) SW(rs2, rs1 uint8, offset int64) {
	lsu.memory.Write32(lsu.addr(rs1, offset), lsu.regFile.ReadReg32(rs2))
}

// SD performs a 64-bit store: mem[xs1 + offset] = xs2.
func (lsu *LoadStoreUnit) SD(rs2, rs1 uint8, offset int64) {
	lsu.memory.Write64(lsu.addr(rs1, offset), lsu.regFile.ReadReg(rs2))
}
