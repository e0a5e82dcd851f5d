package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	lipTable "github.com/charmbracelet/lipgloss/table"
	"github.com/lucasb-eyer/go-colorful"
)

// letdrop's palette, a teal accent over a paper/slate base. The
// highlight pair swaps with its subdued twin between terminal themes
// so "bright on dark, deep on light" holds either way.
var (
	bgColor               = lipgloss.AdaptiveColor{Light: "#F7F3E8", Dark: "#22262E"}
	fgColor               = lipgloss.AdaptiveColor{Light: "#22262E", Dark: "#F7F3E8"}
	redColor              = lipgloss.AdaptiveColor{Light: "#A62F2F", Dark: "#F2594B"}
	yellowColor           = lipgloss.AdaptiveColor{Light: "#B07D2B", Dark: "#E9B872"}
	highlightColor        = lipgloss.AdaptiveColor{Light: "#1D5C57", Dark: "#7BE8D8"}
	midHighlightColor     = lipgloss.AdaptiveColor{Light: "#47A89B", Dark: "#47A89B"}
	subduedHighlightColor = lipgloss.AdaptiveColor{Light: "#7BE8D8", Dark: "#1D5C57"}
	grayColor             = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#454545"}
	subduedGrayColor      = lipgloss.AdaptiveColor{Light: "#C9C9C9", Dark: "#2F2F2F"}
)

// generateGradient blends base into target over steps shades, in Luv
// space which keeps perceived brightness even across the run. The
// staged list colors its rows with one shade each.
func generateGradient(base, target lipgloss.AdaptiveColor, steps int) []lipgloss.AdaptiveColor {
	baseL, _ := colorful.Hex(base.Light)
	baseD, _ := colorful.Hex(base.Dark)
	targetL, _ := colorful.Hex(target.Light)
	targetD, _ := colorful.Hex(target.Dark)
	shades := make([]lipgloss.AdaptiveColor, steps)
	for i := range shades {
		f := float64(i) / float64(steps)
		shades[i] = lipgloss.AdaptiveColor{
			Light: baseL.BlendLuv(targetL, f).Hex(),
			Dark:  baseD.BlendLuv(targetD, f).Hex(),
		}
	}
	return shades
}

// Widths derive from the terminal size minus each container's frame.
// The two side spaces take 26% each, the picker keeps the rest.

func workableW() int {
	return max(0, termW-mainContainerStyle.GetHorizontalFrameSize())
}

func workableH() int {
	return max(0, termH-mainContainerStyle.GetVerticalFrameSize())
}

func smallContainerW() int {
	w := workableW() * 26 / 100
	return max(0, w-smallContainerStyle.GetHorizontalFrameSize())
}

func largeContainerW() int {
	w := workableW() - 2*smallContainerW()
	return max(0, w-largeContainerStyle.GetHorizontalFrameSize())
}

func pickerWorkableH() int {
	return workableH() - largeContainerStyle.GetVerticalFrameSize()
}

var ( // shared across spaces

	mainContainerStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true).BorderForeground(highlightColor)

	smallContainerStyle = lipgloss.NewStyle().Padding(1, 1, 0, 1)

	titleStyle = lipgloss.NewStyle().Height(1).Padding(0, 1).
			Italic(true).Background(grayColor).Foreground(highlightColor)

	statusBarBaseStyle = lipgloss.NewStyle().Height(1).Margin(1, 1, 0, 1).
				Italic(true).Faint(true).Foreground(highlightColor)

	pickerStatusBarStyle = statusBarBaseStyle
	stageStatusBarStyle  = statusBarBaseStyle
)

var ( // picker space

	largeContainerStyle = lipgloss.NewStyle().Padding(1, 0).
				Border(lipgloss.NormalBorder(), false, true).BorderForeground(subduedHighlightColor)

	slogan = lipgloss.NewStyle().Faint(true).Italic(true).
		Foreground(highlightColor).SetString("with Intent!")

	bannerTxt = `
┬  ┌─┐┌┬┐┌┬┐┬─┐┌─┐┌─┐
│  ├┤  │  ││├┬┘│ │├─┘
┴─┘└─┘ ┴ ─┴┘┴└─└─┘┴` + "\n         " + slogan.Render()

	banner = lipgloss.NewStyle().AlignVertical(lipgloss.Center).
		Foreground(midHighlightColor).SetString(bannerTxt)
)

var ( // file picker

	customTableStyles = table.Styles{
		Header: table.DefaultStyles().Header.Foreground(highlightColor).
			BorderStyle(lipgloss.NormalBorder()).BorderForeground(subduedHighlightColor).
			BorderTop(true).BorderBottom(true),
		Selected: table.DefaultStyles().Selected.Italic(true).
			Background(subduedHighlightColor).Foreground(highlightColor),
		Cell: table.DefaultStyles().Cell.Foreground(midHighlightColor),
	}

	filePickerFilterContainerStyle = lipgloss.NewStyle().Align(lipgloss.Center)
)

var ( // stage space

	stageBannerStyle = lipgloss.NewStyle().Italic(true).
				Padding(1, 1, 0, 1).Foreground(redColor)

	stageCaptionTitleStyle = lipgloss.NewStyle().Italic(true).Padding(0, 1).
				Background(subduedHighlightColor).Foreground(highlightColor)

	stageCaptionContainerStyle = lipgloss.NewStyle().Padding(1, 0)
)

var ( // preference form

	preferenceSectionStyle = lipgloss.NewStyle().Align(lipgloss.Center).
				BorderStyle(lipgloss.ASCIIBorder()).
				BorderForeground(midHighlightColor).Foreground(midHighlightColor)

	preferenceQueContainerStyle = lipgloss.NewStyle().Padding(1, 2).
					BorderStyle(lipgloss.RoundedBorder()).BorderForeground(subduedHighlightColor)

	preferenceQueTitleStyle = lipgloss.NewStyle().Italic(true).Padding(0, 1).
				Background(subduedHighlightColor).Foreground(highlightColor)

	preferenceQueDescStyle = lipgloss.NewStyle().Italic(true).
				Padding(1, 0).Foreground(midHighlightColor)

	preferenceQueBtnStyle = lipgloss.NewStyle().Padding(0, 1).MarginRight(1).
				Background(grayColor).Foreground(fgColor)

	preferenceQueInputPromptStyle = lipgloss.NewStyle().Faint(true).Foreground(highlightColor)

	preferenceQueInputAnsStyle = lipgloss.NewStyle().Foreground(highlightColor)

	preferenceQueOverlayContainerStyle = lipgloss.NewStyle().Padding(1).Margin(0, 2, 1, 2).
						Border(lipgloss.RoundedBorder(), false, true, true, true).
						BorderForeground(highlightColor)
)

var ( // alert dialog

	alertDialogContainerStyle = lipgloss.NewStyle().Padding(1, 2).
					BorderStyle(lipgloss.RoundedBorder()).BorderForeground(highlightColor)

	alertDialogHeaderStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1).
				Background(highlightColor).Foreground(subduedHighlightColor)

	alertDialogBodyStyle = lipgloss.NewStyle().Italic(true).
				Padding(1, 0).Foreground(highlightColor)

	alertDialogBtnStyle = lipgloss.NewStyle().Padding(0, 2).MarginLeft(1).
				Background(grayColor).Foreground(fgColor)
)

// renderHelpTable lays out key/description rows the way every space's
// help footer shows them: keys dimmed on the left, descriptions on the
// right. A width of 0 sizes the table to its rows.
func renderHelpTable(width int, rows [][]string) string {
	cell := lipgloss.NewStyle()
	keyCol := cell.Foreground(highlightColor).Align(lipgloss.Left).Faint(true)
	descCol := cell.Foreground(subduedHighlightColor).Align(lipgloss.Right)
	return lipTable.New().
		Wrap(false).
		Width(width).
		Border(lipgloss.HiddenBorder()).BorderBottom(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			switch col {
			case 0:
				return keyCol
			case 1:
				return descCol
			default:
				return cell
			}
		}).
		Rows(rows...).
		Render()
}
