package bot

// Button labels and menu keywords understood by the dispatcher.
const (
	labelChoose     = "Choose"
	labelSchedule   = "Schedule"
	labelDetails    = "Details"
	labelMyBookings = "My bookings"
	labelReset      = "Reset"
	labelResetAll   = "Reset: all"
	labelAdmin      = "Admin"
	labelEdit       = "Edit"
	labelAdd        = "Add"
	labelRemove     = "Remove"
	labelStudents   = "Students"
	labelUnbooked   = "Unbooked"
	labelAdmins     = "Admins"
	labelBack       = "Back"
	labelCancel     = "Cancel"
	labelHelp       = "Help"
	labelAdminHelp  = "Help (admin)"

	resetPrefix = "Reset: "
)

func (b *Bot) mainMenu(admin bool) [][]string {
	rows := [][]string{
		{labelChoose, labelReset},
		{labelSchedule, labelMyBookings},
		{labelHelp},
	}
	if admin {
		rows = append(rows, []string{labelAdmin})
	}
	return rows
}

func (b *Bot) adminMenu() [][]string {
	return [][]string{
		{labelEdit},
		{labelStudents, labelUnbooked},
		{labelAdmins, labelAdminHelp},
		{labelBack},
	}
}

func (b *Bot) editMenu() [][]string {
	return [][]string{
		{labelAdd, labelRemove},
		{labelBack, labelCancel},
	}
}

func (b *Bot) categoryMenu() [][]string {
	var rows [][]string
	for _, name := range b.categories {
		rows = append(rows, []string{name})
	}
	rows = append(rows, []string{labelBack})
	return rows
}

func (b *Bot) resetMenu() [][]string {
	var rows [][]string
	for _, name := range b.categories {
		rows = append(rows, []string{resetPrefix + name})
	}
	rows = append(rows, []string{labelResetAll}, []string{labelBack})
	return rows
}

// slotMenu lists the configured slot titles of a category, one per row.
func (b *Bot) slotMenu(category string) [][]string {
	cat, ok := b.store.Category(category)
	if !ok {
		return nil
	}
	var rows [][]string
	for _, slot := range cat.Slots {
		if slot.Configured() {
			rows = append(rows, []string{slot.Title})
		}
	}
	rows = append(rows, []string{labelBack})
	return rows
}
