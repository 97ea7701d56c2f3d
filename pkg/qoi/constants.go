package qoi

// A List of opcodes used in the file. They specify how the bytes are encoded.
const (
	OpIndex   = byte(0b00000000) // 00xxxxxx
	OpRun8    = byte(0b01000000) // 010xxxxx
	OpRun16   = byte(0b01100000) // 011xxxxx
	OpDiff8   = byte(0b10000000) // 10xxxxxx
	OpDiff16  = byte(0b11000000) // 110xxxxx
	OpDiff24  = byte(0b11100000) // 1110xxxx
	OpColor   = byte(0b11110000) // 1111rgba
	opMask2   = byte(0b11000000)
	opMask3   = byte(0b11100000)
	opMask4   = byte(0b11110000)
	opPayload = byte(0b00011111)
)

// Magic is the magic code used for files of the QuiteOk image format.
const Magic = "qoif"

const (
	// HeaderSize is the fixed size of the file header in bytes.
	HeaderSize = 14
	// FooterSize is the size of the all-zero trailer after the opcode stream.
	FooterSize = 4
	// MaxSize is the largest raw or encoded image, in bytes, the codec will handle.
	MaxSize = 1 << 30

	// maxRun is the longest run a single run opcode can carry.
	maxRun = 0x2020
	// shortRun is the longest run carried by OpRun8.
	shortRun = 32
)

// The end of file code used by files of the QuiteOk image format.
var footer = [FooterSize]byte{0, 0, 0, 0}
