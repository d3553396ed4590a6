package scpi

import (
	"fmt"
	"strings"
)

// Identity of the instrument model this catalog drives.
const (
	BrandTektronix = "Tektronix"
	ModelMDO34     = "MDO34"
)

// Analog channel numbers available on the MDO34 front panel.
var mdo34Channels = []int{1, 2, 3, 4}

// Input attenuator coupling settings accepted by the vertical subsystem.
var mdo34Couplings = map[string]bool{
	"AC":       true,
	"DC":       true,
	"DCREJect": true,
}

// Math waveform modes accepted by the math subsystem.
var mdo34MathTypes = map[string]bool{
	"DUAL":     true,
	"FFT":      true,
	"ADVanced": true,
	"SPECTRUM": true,
}

// Horizontal scale limits in seconds per division.
const (
	mdo34MinXScale = 400e-12
	mdo34MaxXScale = 1000.0
)

// MDO34 drives a Tektronix MDO34 mixed domain oscilloscope over a SCPI
// session. Every method formats one command from its validated arguments;
// all framing and transport behavior lives in the embedded Session.
type MDO34 struct {
	*Session
	resourceName string
}

// NewMDO34 creates an MDO34 handle over an already-open transporter and
// verifies that a responsive instrument is on the other end. On a failed
// communication check the transporter is closed before the error returns.
func NewMDO34(t Transporter, config *SessionConfig) (*MDO34, error) {
	cfg := DefaultSessionConfig()
	if config != nil {
		cfg = *config
	}

	session := NewSession(t, cfg)
	d := &MDO34{
		Session:      session,
		resourceName: t.RemoteAddr(),
	}
	if err := d.CheckCommunication(); err != nil {
		session.Close()
		return nil, err
	}
	return d, nil
}

// DialMDO34 opens the given VISA resource and creates an MDO34 handle on it.
func DialMDO34(resourceName string, config *SessionConfig) (*MDO34, error) {
	cfg := DefaultSessionConfig()
	if config != nil {
		cfg = *config
	}

	t, err := OpenResource(resourceName, cfg)
	if err != nil {
		return nil, err
	}
	d, err := NewMDO34(t, &cfg)
	if err != nil {
		return nil, err
	}
	d.resourceName = resourceName
	return d, nil
}

// TryDialMDO34 is the error-discarding convenience constructor: it returns
// the handle and true on success, nil and false on any failure. Callers who
// need the failure reason should use DialMDO34 instead.
func TryDialMDO34(resourceName string, config *SessionConfig) (*MDO34, bool) {
	d, err := DialMDO34(resourceName, config)
	if err != nil {
		return nil, false
	}
	return d, true
}

// Brand returns the brand of the instrument.
func (d *MDO34) Brand() string {
	return BrandTektronix
}

// Model returns the model name of the instrument.
func (d *MDO34) Model() string {
	return ModelMDO34
}

// ResourceName returns the resource name the instrument was opened on.
func (d *MDO34) ResourceName() string {
	return d.resourceName
}

// checkChannel validates an analog channel number before any command text
// is built from it.
func (d *MDO34) checkChannel(chNum int) error {
	for _, n := range mdo34Channels {
		if chNum == n {
			return nil
		}
	}
	return newValidationError("channel number", chNum, "valid channels are 1, 2, 3 and 4")
}

// checkMathChannel validates a math channel number.
func (d *MDO34) checkMathChannel(num int) error {
	if num <= 0 {
		return newValidationError("math channel number", num, "must be a positive integer")
	}
	return nil
}

// DisableResponseHeader turns off the command header echo in query
// responses, so that "CH1:COUPling?" answers "DC" instead of
// ":CH1:COUPLING DC".
func (d *MDO34) DisableResponseHeader() error {
	_, err := d.Command(":HDR OFF")
	return err
}

// SetChannelLabel specifies the waveform label for a channel.
// The label is limited to 30 characters.
func (d *MDO34) SetChannelLabel(chNum int, label string) error {
	if err := d.checkChannel(chNum); err != nil {
		return err
	}
	if len(label) > 30 {
		return newValidationError("label", label, "must be at most 30 characters")
	}
	_, err := d.Command(fmt.Sprintf("CH%d:LABel \"%s\"", chNum, label))
	return err
}

// GetChannelLabel returns the waveform label for a channel.
func (d *MDO34) GetChannelLabel(chNum int) (string, error) {
	if err := d.checkChannel(chNum); err != nil {
		return "", err
	}
	resp, err := d.Query(fmt.Sprintf("CH%d:LABel?", chNum))
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(resp), "\""), nil
}

// SetChannelCoupling specifies the input attenuator coupling for a channel.
// Options are: AC, DC, DCREJect.
func (d *MDO34) SetChannelCoupling(chNum int, coupling string) error {
	if err := d.checkChannel(chNum); err != nil {
		return err
	}
	if !mdo34Couplings[coupling] {
		return newValidationError("coupling", coupling, "options are AC, DC and DCREJect")
	}
	_, err := d.Command(fmt.Sprintf("CH%d:COUPling %s", chNum, coupling))
	return err
}

// GetChannelCoupling queries the input attenuator coupling for a channel.
func (d *MDO34) GetChannelCoupling(chNum int) (string, error) {
	if err := d.checkChannel(chNum); err != nil {
		return "", err
	}
	resp, err := d.Query(fmt.Sprintf("CH%d:COUPling?", chNum))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

// SetChannelBandwidth specifies the low-pass bandwidth limit of a channel
// in hertz.
func (d *MDO34) SetChannelBandwidth(chNum int, bandwidth float64) error {
	if err := d.checkChannel(chNum); err != nil {
		return err
	}
	if bandwidth <= 0 {
		return newValidationError("bandwidth", bandwidth, "must be positive")
	}
	_, err := d.Command(fmt.Sprintf("CH%d:BANdwidth %.4E", chNum, bandwidth))
	return err
}

// GetChannelBandwidth queries the bandwidth limit of a channel in hertz.
func (d *MDO34) GetChannelBandwidth(chNum int) (float64, error) {
	if err := d.checkChannel(chNum); err != nil {
		return 0, err
	}
	return d.queryFloat(fmt.Sprintf("CH%d:BANdwidth?", chNum))
}

// SetChannelScale specifies the vertical scale of a channel in volts per
// division. The instrument truncates the value to three significant digits.
func (d *MDO34) SetChannelScale(chNum int, scale float64) error {
	if err := d.checkChannel(chNum); err != nil {
		return err
	}
	if scale <= 0 {
		return newValidationError("scale", scale, "must be positive")
	}
	_, err := d.Command(fmt.Sprintf("CH%d:SCAle %.3E", chNum, scale))
	return err
}

// GetChannelScale queries the vertical scale of a channel in volts per
// division.
func (d *MDO34) GetChannelScale(chNum int) (float64, error) {
	if err := d.checkChannel(chNum); err != nil {
		return 0, err
	}
	return d.queryFloat(fmt.Sprintf("CH%d:SCAle?", chNum))
}

// SetChannelPosition specifies the vertical position of a channel in
// divisions from the center graticule. The range is -8 to 8 divisions.
func (d *MDO34) SetChannelPosition(chNum int, position float64) error {
	if err := d.checkChannel(chNum); err != nil {
		return err
	}
	if position < -8 || position > 8 {
		return newValidationError("position", position, "must be between -8 and 8 divisions")
	}
	_, err := d.Command(fmt.Sprintf("CH%d:POSition %.3f", chNum, position))
	return err
}

// GetChannelPosition queries the vertical position of a channel in
// divisions from the center graticule.
func (d *MDO34) GetChannelPosition(chNum int) (float64, error) {
	if err := d.checkChannel(chNum); err != nil {
		return 0, err
	}
	return d.queryFloat(fmt.Sprintf("CH%d:POSition?", chNum))
}

// SetMathType specifies the mode of a math waveform.
// Valid values are: DUAL, FFT, ADVanced, SPECTRUM.
func (d *MDO34) SetMathType(num int, mathType string) error {
	if err := d.checkMathChannel(num); err != nil {
		return err
	}
	if !mdo34MathTypes[mathType] {
		return newValidationError("math type", mathType, "options are DUAL, FFT, ADVanced and SPECTRUM")
	}
	_, err := d.Command(fmt.Sprintf("MATH%d:TYPe %s", num, mathType))
	return err
}

// GetMathType queries the mode of a math waveform.
func (d *MDO34) GetMathType(num int) (string, error) {
	if err := d.checkMathChannel(num); err != nil {
		return "", err
	}
	resp, err := d.Query(fmt.Sprintf("MATH%d:TYPe?", num))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

// SetMathFunction defines a math waveform with a text expression, for
// example "CH1-CH2".
func (d *MDO34) SetMathFunction(num int, function string) error {
	if err := d.checkMathChannel(num); err != nil {
		return err
	}
	_, err := d.Command(fmt.Sprintf("MATH%d:DEFine \"%s\"", num, function))
	return err
}

// GetMathFunction queries the expression defining a math waveform.
func (d *MDO34) GetMathFunction(num int) (string, error) {
	if err := d.checkMathChannel(num); err != nil {
		return "", err
	}
	resp, err := d.Query(fmt.Sprintf("MATH%d:DEFine?", num))
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(resp), "\""), nil
}

// SetXScale specifies the time base horizontal scale in seconds per
// division. The range is 400 ps to 1000 s.
func (d *MDO34) SetXScale(scale float64) error {
	if scale < mdo34MinXScale || scale > mdo34MaxXScale {
		return newValidationError("scale", scale, "must be between 400e-12 and 1000 seconds")
	}
	_, err := d.Command(fmt.Sprintf("HORizontal:SCAle %.4E", scale))
	return err
}

// GetXScale queries the time base horizontal scale in seconds per division.
func (d *MDO34) GetXScale() (float64, error) {
	return d.queryFloat("HORizontal:SCAle?")
}

// SetXPosition specifies the horizontal position as a percentage of the
// waveform displayed left of the center graticule, used when delay is off.
func (d *MDO34) SetXPosition(position float64) error {
	if position < 0 || position > 100 {
		return newValidationError("position", position, "must be between 0 and 100 percent")
	}
	_, err := d.Command(fmt.Sprintf("HORizontal:POSition %g", position))
	return err
}

// GetXPosition queries the horizontal position in percent.
func (d *MDO34) GetXPosition() (float64, error) {
	return d.queryFloat("HORizontal:POSition?")
}

// Curve transfers the waveform record of an analog channel. The instrument
// is switched to signed big-endian two-byte integer encoding and the block
// is returned as numbers in digitizer levels.
func (d *MDO34) Curve(chNum int) ([]float64, error) {
	if err := d.checkChannel(chNum); err != nil {
		return nil, err
	}
	if _, err := d.Command(fmt.Sprintf("DATa:SOUrce CH%d", chNum)); err != nil {
		return nil, err
	}
	if _, err := d.Command("DATa:ENCdg RIBinary"); err != nil {
		return nil, err
	}
	if _, err := d.Command("WFMOutpre:BYT_Nr 2"); err != nil {
		return nil, err
	}
	opts := DefaultBinaryOptions()
	opts.Datatype = Int16
	opts.BigEndian = true
	return d.QueryBinaryValues("CURVe?", opts)
}

// queryFloat issues a query and parses the answer as a float.
func (d *MDO34) queryFloat(message string) (float64, error) {
	resp, err := d.Query(message)
	if err != nil {
		return 0, err
	}
	value, err := parseFloatResponse(resp)
	if err != nil {
		return 0, fmt.Errorf("scpi: failed to parse response to %q: %w", message, err)
	}
	return value, nil
}
