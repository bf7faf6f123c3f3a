package main

import (
	"fmt"
	"strings"
)

// menuAction is what choosing a menu item does to the model.
type menuAction int

const (
	actionStage menuAction = iota
	actionEndian
	actionIllustrate
)

// menuItem represents a single choice in the menu.
type menuItem struct {
	name   string
	symbol string
	action menuAction
	stage  stage
	endian Endianness
	on     bool
}

// menuCategory groups related menu items under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

// stageMenu defines the picker categories and items.
var stageMenu = []menuCategory{
	{
		name: "Stage",
		items: []menuItem{
			{name: "Fourier adder", symbol: "+Σ", action: actionStage, stage: stageAdder},
			{name: "Phase oracle", symbol: "±", action: actionStage, stage: stageOracle},
			{name: "Grover search", symbol: "M", action: actionStage, stage: stageSolver},
		},
	},
	{
		name: "Adder layout",
		items: []menuItem{
			{name: "Little endian", symbol: "QFT", action: actionEndian, endian: LittleEndian},
			{name: "Big endian", symbol: "QFT*", action: actionEndian, endian: BigEndian},
			{name: "Illustrated", symbol: "┃▢┃", action: actionIllustrate, on: true},
			{name: "Decomposed", symbol: "●─●", action: actionIllustrate, on: false},
		},
	},
}

// applyMenuItem performs the selected menu action.
func (m *Model) applyMenuItem(item menuItem) {
	switch item.action {
	case actionStage:
		m.stage = item.stage
	case actionEndian:
		m.problem.Endian = item.endian.String()
	case actionIllustrate:
		m.problem.Illustrate = item.on
	}
	m.cursorStep = 0
	m.cursorQubit = 0
	m.rebuild()
}

// renderMenu renders the floating stage-picker popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("View"))
	sb.WriteString("\n")

	// Category tabs
	for i, cat := range stageMenu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(activeGateStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(stageMenu)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 30)))
	sb.WriteString("\n")

	cat := stageMenu[m.menuCat]
	for i, item := range cat.items {
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ "))
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("%-16s", item.name)))
			sb.WriteString(gateStyle.Render(item.symbol))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(fmt.Sprintf("%-16s", item.name)))
			sb.WriteString(dimStyle.Render(item.symbol))
		}
		if m.isCurrent(item) {
			sb.WriteString(dimStyle.Render(" ✓"))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(" ↑↓ Select  ←→ Cat  ⏎ Ok  Esc ✕"))

	return menuBorderStyle.Render(sb.String())
}

// isCurrent reports whether the item matches the current view.
func (m Model) isCurrent(item menuItem) bool {
	switch item.action {
	case actionStage:
		return m.stage == item.stage
	case actionEndian:
		return m.problem.Endianness() == item.endian
	case actionIllustrate:
		return m.problem.Illustrate == item.on
	}
	return false
}
