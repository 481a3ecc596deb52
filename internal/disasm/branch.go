package disasm

import (
	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

// Branch target extraction from decoded instructions. Each instruction set
// encodes the displacement relative to a different base.

// x86Target resolves a rel8/rel16/rel32 operand, which is relative to the
// end of the instruction.
func x86Target(inst x86asm.Inst, pc uint64) (uint64, bool) {
	for _, a := range inst.Args {
		if rel, ok := a.(x86asm.Rel); ok {
			return uint64(int64(pc) + int64(inst.Len) + int64(rel)), true
		}
	}
	return 0, false
}

// armTarget resolves a PC-relative operand, which is relative to the
// instruction address plus 8.
func armTarget(inst armasm.Inst, pc uint64) (uint64, bool) {
	for _, a := range inst.Args {
		if rel, ok := a.(armasm.PCRel); ok {
			return uint64(int64(pc) + 8 + int64(rel)), true
		}
	}
	return 0, false
}

// arm64Target resolves a PC-relative operand, which is relative to the
// instruction address.
func arm64Target(inst arm64asm.Inst, pc uint64) (uint64, bool) {
	for _, a := range inst.Args {
		if rel, ok := a.(arm64asm.PCRel); ok {
			return uint64(int64(pc) + int64(rel)), true
		}
	}
	return 0, false
}
