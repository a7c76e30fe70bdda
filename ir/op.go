// Package ir provides the architecture-neutral intermediate representation
// consumed by the code generator.
package ir

import (
	"fmt"
	"strings"
)

// Op represents an IR opcode.
type Op uint8

// IR opcodes, grouped by family.
const (
	OpInvalid Op = iota

	// Arith
	OpAdd
	OpSub
	OpNeg
	OpAddConst
	OpSubConst

	// Logic
	OpAnd
	OpOr
	OpXor
	OpNot
	OpAndConst
	OpOrConst
	OpXorConst

	// Assign
	OpMov
	OpExt8to32
	OpExt16to32

	// Bits
	OpReverseBits
	OpBSwap16
	OpBSwap32
	OpClz

	// Shift
	OpShl
	OpShr
	OpSar
	OpRor
	OpShlImm
	OpShrImm
	OpSarImm
	OpRorImm

	// Compare
	OpSlt
	OpSltConst
	OpSltU
	OpSltUConst

	// CondAssign
	OpMovZ
	OpMovNZ
	OpMax
	OpMin

	// HiLo
	OpMtLo
	OpMtHi
	OpMfLo
	OpMfHi

	// Mult
	OpMult
	OpMultU
	OpMadd
	OpMaddU
	OpMsub
	OpMsubU

	// Div
	OpDiv
	OpDivU

	numOps
)

// Family groups opcodes that are compiled by the same handler.
type Family uint8

// Opcode families.
const (
	FamilyUnknown Family = iota
	FamilyArith
	FamilyLogic
	FamilyAssign
	FamilyBits
	FamilyShift
	FamilyCompare
	FamilyCondAssign
	FamilyHiLo
	FamilyMult
	FamilyDiv

	numFamilies
)

// Form describes which operand fields an opcode uses.
type Form uint8

// Operand forms.
const (
	FormNone       Form = iota
	FormDSS             // dest, src1, src2
	FormDS              // dest, src1
	FormDSC             // dest, src1, constant
	FormSS              // src1, src2 (writes LO/HI)
	FormS               // src1 (writes LO or HI)
	FormD               // dest (reads LO or HI)
)

type opInfo struct {
	name   string
	family Family
	form   Form
}

var opTable = [numOps]opInfo{
	OpInvalid: {"Invalid", FamilyUnknown, FormNone},

	OpAdd:      {"Add", FamilyArith, FormDSS},
	OpSub:      {"Sub", FamilyArith, FormDSS},
	OpNeg:      {"Neg", FamilyArith, FormDS},
	OpAddConst: {"AddConst", FamilyArith, FormDSC},
	OpSubConst: {"SubConst", FamilyArith, FormDSC},

	OpAnd:      {"And", FamilyLogic, FormDSS},
	OpOr:       {"Or", FamilyLogic, FormDSS},
	OpXor:      {"Xor", FamilyLogic, FormDSS},
	OpNot:      {"Not", FamilyLogic, FormDS},
	OpAndConst: {"AndConst", FamilyLogic, FormDSC},
	OpOrConst:  {"OrConst", FamilyLogic, FormDSC},
	OpXorConst: {"XorConst", FamilyLogic, FormDSC},

	OpMov:       {"Mov", FamilyAssign, FormDS},
	OpExt8to32:  {"Ext8to32", FamilyAssign, FormDS},
	OpExt16to32: {"Ext16to32", FamilyAssign, FormDS},

	OpReverseBits: {"ReverseBits", FamilyBits, FormDS},
	OpBSwap16:     {"BSwap16", FamilyBits, FormDS},
	OpBSwap32:     {"BSwap32", FamilyBits, FormDS},
	OpClz:         {"Clz", FamilyBits, FormDS},

	OpShl:    {"Shl", FamilyShift, FormDSS},
	OpShr:    {"Shr", FamilyShift, FormDSS},
	OpSar:    {"Sar", FamilyShift, FormDSS},
	OpRor:    {"Ror", FamilyShift, FormDSS},
	OpShlImm: {"ShlImm", FamilyShift, FormDSC},
	OpShrImm: {"ShrImm", FamilyShift, FormDSC},
	OpSarImm: {"SarImm", FamilyShift, FormDSC},
	OpRorImm: {"RorImm", FamilyShift, FormDSC},

	OpSlt:       {"Slt", FamilyCompare, FormDSS},
	OpSltConst:  {"SltConst", FamilyCompare, FormDSC},
	OpSltU:      {"SltU", FamilyCompare, FormDSS},
	OpSltUConst: {"SltUConst", FamilyCompare, FormDSC},

	OpMovZ:  {"MovZ", FamilyCondAssign, FormDSS},
	OpMovNZ: {"MovNZ", FamilyCondAssign, FormDSS},
	OpMax:   {"Max", FamilyCondAssign, FormDSS},
	OpMin:   {"Min", FamilyCondAssign, FormDSS},

	OpMtLo: {"MtLo", FamilyHiLo, FormS},
	OpMtHi: {"MtHi", FamilyHiLo, FormS},
	OpMfLo: {"MfLo", FamilyHiLo, FormD},
	OpMfHi: {"MfHi", FamilyHiLo, FormD},

	OpMult:  {"Mult", FamilyMult, FormSS},
	OpMultU: {"MultU", FamilyMult, FormSS},
	OpMadd:  {"Madd", FamilyMult, FormSS},
	OpMaddU: {"MaddU", FamilyMult, FormSS},
	OpMsub:  {"Msub", FamilyMult, FormSS},
	OpMsubU: {"MsubU", FamilyMult, FormSS},

	OpDiv:  {"Div", FamilyDiv, FormSS},
	OpDivU: {"DivU", FamilyDiv, FormSS},
}

var familyNames = [numFamilies]string{
	FamilyUnknown:    "unknown",
	FamilyArith:      "arith",
	FamilyLogic:      "logic",
	FamilyAssign:     "assign",
	FamilyBits:       "bits",
	FamilyShift:      "shift",
	FamilyCompare:    "compare",
	FamilyCondAssign: "condassign",
	FamilyHiLo:       "hilo",
	FamilyMult:       "mult",
	FamilyDiv:        "div",
}

var opsByName map[string]Op

func init() {
	// Every opcode must belong to exactly one family; a missing table row
	// would otherwise surface only as a routing error at translation time.
	opsByName = make(map[string]Op, numOps)
	for op := OpInvalid + 1; op < numOps; op++ {
		info := opTable[op]
		if info.name == "" || info.family == FamilyUnknown || info.form == FormNone {
			panic(fmt.Sprintf("ir: opcode %d has no table entry", op))
		}
		opsByName[strings.ToLower(info.name)] = op
	}
}

// String returns the opcode's mnemonic.
func (op Op) String() string {
	if op >= numOps {
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
	return opTable[op].name
}

// Family returns the handler family of the opcode. Unknown opcodes return
// FamilyUnknown.
func (op Op) Family() Family {
	if op >= numOps {
		return FamilyUnknown
	}
	return opTable[op].family
}

// Form returns the operand form of the opcode.
func (op Op) Form() Form {
	if op >= numOps {
		return FormNone
	}
	return opTable[op].form
}

// HasConst reports whether the opcode reads Inst.Constant.
func (op Op) HasConst() bool {
	return op.Form() == FormDSC
}

// Valid reports whether op is a defined, non-invalid opcode.
func (op Op) Valid() bool {
	return op > OpInvalid && op < numOps
}

// ParseOp looks up an opcode by mnemonic, case-insensitively.
func ParseOp(name string) (Op, error) {
	op, ok := opsByName[strings.ToLower(name)]
	if !ok {
		return OpInvalid, fmt.Errorf("unknown IR opcode %q", name)
	}
	return op, nil
}

// AllOps returns every valid opcode in declaration order.
func AllOps() []Op {
	ops := make([]Op, 0, numOps-1)
	for op := OpInvalid + 1; op < numOps; op++ {
		ops = append(ops, op)
	}
	return ops
}

// String returns the family name.
func (f Family) String() string {
	if f >= numFamilies {
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
	return familyNames[f]
}

// Ops returns the opcodes belonging to the family.
func (f Family) Ops() []Op {
	var ops []Op
	for _, op := range AllOps() {
		if op.Family() == f {
			ops = append(ops, op)
		}
	}
	return ops
}

// AllFamilies returns every known family.
func AllFamilies() []Family {
	fams := make([]Family, 0, numFamilies-1)
	for f := FamilyUnknown + 1; f < numFamilies; f++ {
		fams = append(fams, f)
	}
	return fams
}

// ParseFamily looks up a family by name, case-insensitively.
func ParseFamily(name string) (Family, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f := FamilyUnknown + 1; f < numFamilies; f++ {
		if familyNames[f] == name {
			return f, nil
		}
	}
	return FamilyUnknown, fmt.Errorf("unknown op family %q", name)
}
