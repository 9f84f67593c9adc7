package image

// Function is one callable unit of the program image: its arity (number
// of parameter slots bound as locals 0..Arity-1 on entry), whether CALL
// should expect a result value re-pushed on RET, and its owned
// instruction stream.
type Function struct {
	Index        uint32
	Arity        uint32
	HasResult    bool
	Name         string
	Instructions Instructions
}
