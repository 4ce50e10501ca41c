package wizard

// Viewport is told whenever the current step changes, and returns the resulting scroll offset.
type Viewport interface {
	BringIntoView(stepID int) int
}

// StepStrip is the horizontal strip of step buttons.
// BringIntoView centers the button of the step, without scrolling past either end of the strip.
type StepStrip struct {
	Width       int // visible width
	ButtonWidth int
	ButtonGap   int
	Steps       int
}

func NewStepStrip(width, buttonWidth, buttonGap int) StepStrip {
	return StepStrip{Width: width, ButtonWidth: buttonWidth, ButtonGap: buttonGap, Steps: LastStep}
}

func (s StepStrip) contentWidth() int {
	if s.Steps <= 0 {
		return 0
	}
	return s.Steps*s.ButtonWidth + (s.Steps-1)*s.ButtonGap
}

func (s StepStrip) BringIntoView(stepID int) int {
	maxOffset := s.contentWidth() - s.Width
	if maxOffset <= 0 {
		return 0
	}
	offset := (stepID-1)*(s.ButtonWidth+s.ButtonGap) + s.ButtonWidth/2 - s.Width/2
	if offset < 0 {
		return 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}
