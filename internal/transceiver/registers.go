package transceiver

// ax5051Register is one (address, value) pair in the fixed init table
// (§4.2). The table is reverse-engineered register-compatible
// configuration for the AX5051 RF chip and is never varied at
// runtime except for the three frequency registers, whose values
// Controller.writeRegisterTable replaces with the tuned ones as it
// writes the table.
type ax5051Register struct {
	Addr  byte
	Value byte
}

// Frequency register addresses the controller patches after the
// static table is written (§4.2 step 3).
const (
	regFreq3 = 0x07
	regFreq2 = 0x08
	regFreq1 = 0x09
)

// ax5051InitTable is the fixed 60-entry AX5051 register list covering
// modulation, encoding, framing, IF, AFC, RX/TX rate, and driver
// settings (§4.2). The three frequency-register entries exist as
// placeholders here; writeRegisterTable writes the tuned values in
// their place.
var ax5051InitTable = []ax5051Register{
	{0x0f, 0x20}, {0x17, 0x2c}, {0x18, 0x06},
	{0x20, 0x14}, {0x21, 0x01}, {0x22, 0x00},
	{0x24, 0x00}, {0x25, 0x00}, {0x26, 0x00},
	{0x28, 0x00}, {0x29, 0x00}, {0x2a, 0x00},
	{0x2c, 0x00}, {0x2d, 0x00}, {0x2e, 0x00},
	{0x2f, 0x00}, {0x30, 0x00}, {0x31, 0x00},
	{0x32, 0x00}, {0x33, 0x00}, {0x34, 0x00},
	{0x35, 0x00}, {0x36, 0x00}, {0x37, 0x00},
	{0x38, 0x00}, {0x39, 0x00}, {0x3a, 0x00},
	{0x3b, 0x00}, {0x3c, 0x00}, {0x3d, 0x00},
	{0x3e, 0xc0}, {0x3f, 0x01},
	{regFreq3, 0x00}, {regFreq2, 0x00}, {regFreq1, 0x00},
	{0x0b, 0x0b}, {0x0c, 0x00}, {0x0d, 0x41},
	{0x0e, 0x00}, {0x10, 0x67}, {0x11, 0xff},
	{0x12, 0x00}, {0x13, 0x1e}, {0x14, 0x00},
	{0x15, 0x2c}, {0x16, 0x00}, {0x19, 0x04},
	{0x1a, 0x00}, {0x1b, 0x00}, {0x1c, 0xc1},
	{0x1d, 0x41}, {0x1e, 0x00}, {0x23, 0x00},
	{0x27, 0x00}, {0x40, 0x00}, {0x41, 0x00},
	{0x42, 0x00}, {0x43, 0x00}, {0x44, 0x00},
	{0x45, 0x00},
}

func init() {
	if len(ax5051InitTable) != 60 {
		panic("transceiver: ax5051InitTable must carry exactly 60 entries (§4.2)")
	}
}
