package budget

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/core"
	"budgeteer/internal/history"
)

func TestIncomeAndAssignment(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	groceries := f.item(jan, bills, "Groceries")
	assert.Equal(t, core.Money{}, f.rta(jan))

	f.income(jan, 2000)
	assert.Equal(t, core.Dollars(2000), f.rta(jan))

	f.assign(jan, rent, 500)
	assert.Equal(t, core.Dollars(1500), f.rta(jan))
	assert.Equal(t, core.Dollars(500), f.itemIn(jan, rent).Available)

	f.assign(jan, groceries, 300)
	assert.Equal(t, core.Dollars(1200), f.rta(jan))
	f.checkInvariants()
}

func TestReassignmentMovesReadyToAssign(t *testing.T) {
	f := newFixture(t)
	rent := f.item(jan, f.group(jan, "Bills"), "Rent")
	f.income(jan, 2000)
	f.assign(jan, rent, 500)
	require.Equal(t, core.Dollars(1500), f.rta(jan))

	f.assign(jan, rent, 700)
	assert.Equal(t, core.Dollars(1300), f.rta(jan))

	f.assign(jan, rent, 450)
	assert.Equal(t, core.Dollars(1550), f.rta(jan))
	f.checkInvariants()
}

func TestPositiveBalanceRollsOver(t *testing.T) {
	f := newFixture(t)
	ins := f.item(jan, f.group(jan, "Car"), "Car Insurance")
	f.income(jan, 1000)
	f.assign(jan, ins, 100)
	require.Equal(t, core.Dollars(100), f.itemIn(jan, ins).Available)

	next := f.itemIn(feb, ins)
	assert.Equal(t, core.Dollars(100), next.Available)
	assert.Equal(t, core.Dollars(100), next.CarryIn)
	assert.True(t, next.Assigned.IsZero())
	assert.Equal(t, core.Dollars(900), f.rta(feb))
	f.checkInvariants()
}

func TestCashOverspendIsAbsorbed(t *testing.T) {
	f := newFixture(t)
	food := f.item(jan, f.group(jan, "Everyday"), "Groceries")
	f.income(jan, 1000)
	f.assign(jan, food, 60)
	f.spend(jan, f.checking, "Everyday", "Groceries", 100)

	require.Equal(t, core.Dollars(-40), f.itemIn(jan, food).Available)
	janRTA := f.rta(jan)
	assert.Equal(t, core.Dollars(940), janRTA, "overspending does not touch RTA")

	s := f.e.Summary(jan)
	require.Len(t, s.Overspent, 1)
	assert.Equal(t, "Groceries", s.Overspent[0].Name)

	next := f.itemIn(feb, food)
	assert.True(t, next.Available.IsZero())
	assert.True(t, next.CarryIn.IsZero())
	assert.Equal(t, janRTA, f.rta(feb))
	assert.Equal(t, core.Dollars(40), f.e.Summary(feb).AbsorbedOverspend)
	f.checkInvariants()
}

func TestDeleteItemWithReassignment(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	dining := f.item(jan, bills, "Dining")
	f.income(jan, 2000)
	f.assign(jan, rent, 500)
	f.assign(jan, dining, 100)
	rta := f.rta(jan)

	err := f.e.DeleteItem(jan, dining, "")
	require.ErrorIs(t, err, core.ErrFundsPresent)

	require.NoError(t, f.e.DeleteItem(jan, dining, rent))
	it, _ := f.e.Month(jan).Item(dining)
	assert.Nil(t, it)
	assert.Equal(t, core.Dollars(600), f.itemIn(jan, rent).Available)
	assert.Equal(t, rta, f.rta(jan))
	f.checkInvariants()

	ok, err := f.e.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.Dollars(100), f.itemIn(jan, dining).Available)
	assert.Equal(t, core.Dollars(500), f.itemIn(jan, rent).Available)
	f.checkInvariants()
}

func TestDeleteItemMovesCarryAndTransactions(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	fun := f.item(jan, bills, "Fun")
	f.income(jan, 1000)
	f.assign(jan, fun, 80)
	f.assign(feb, fun, 20)
	tx := f.spend(feb, f.checking, "Bills", "Fun", 30)

	before := f.itemIn(feb, fun).Available // 80 carried + 20 - 30
	require.Equal(t, core.Dollars(70), before)

	require.NoError(t, f.e.DeleteItem(feb, fun, rent))
	assert.Equal(t, before, f.itemIn(feb, rent).Available)
	moved, _ := f.e.ledger.Transaction(tx)
	assert.Equal(t, "Rent", moved.Item)
	assert.Equal(t, core.Dollars(80), f.itemIn(jan, fun).Available, "earlier months keep the item")
	f.checkInvariants()

	_, err := f.e.Undo()
	require.NoError(t, err)
	moved, _ = f.e.ledger.Transaction(tx)
	assert.Equal(t, "Fun", moved.Item)
	assert.Equal(t, core.Dollars(70), f.itemIn(feb, fun).Available)
	f.checkInvariants()
}

func TestAbsorbedCarryFollowsEarlierEdits(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	insurance := f.item(jan, bills, "Insurance")
	f.income(jan, 1000)
	f.assign(jan, insurance, 100)
	f.e.Month(mar)

	require.NoError(t, f.e.DeleteItem(feb, insurance, rent))
	assert.Equal(t, core.Dollars(100), f.itemIn(feb, rent).CarryIn)
	assert.Equal(t, []core.ItemID{insurance}, f.itemIn(feb, rent).Absorbs)

	f.assign(jan, insurance, 30)
	assert.Equal(t, core.Dollars(970), f.rta(jan))
	assert.Equal(t, core.Dollars(30), f.itemIn(feb, rent).CarryIn)
	assert.Equal(t, core.Dollars(30), f.itemIn(feb, rent).Available)
	assert.Equal(t, core.Dollars(970), f.rta(feb))
	for _, m := range []core.Month{jan, feb, mar} {
		s := f.e.Summary(m)
		assert.Equal(t, core.Dollars(1000), s.ReadyToAssign.Add(s.Available), "money in %s", m)
	}
	f.checkInvariants()
}

func TestAbsorbedItemsMoveWithTheirHolder(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	fun := f.item(jan, bills, "Fun")
	gym := f.item(jan, bills, "Gym")
	f.income(jan, 1000)
	f.assign(jan, gym, 40)
	f.assign(jan, fun, 60)

	require.NoError(t, f.e.DeleteItem(feb, gym, fun))
	require.NoError(t, f.e.DeleteItem(feb, fun, rent))
	assert.ElementsMatch(t, []core.ItemID{gym, fun}, f.itemIn(feb, rent).Absorbs)
	assert.Equal(t, core.Dollars(100), f.itemIn(feb, rent).Available)

	f.assign(jan, gym, 10)
	assert.Equal(t, core.Dollars(70), f.itemIn(feb, rent).Available)
	f.checkInvariants()
}

func TestDeleteItemWithHistoryNeedsTarget(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	food := f.item(jan, bills, "Groceries")
	f.income(jan, 1000)
	f.assign(jan, food, 50)
	f.spend(jan, f.checking, "Bills", "Groceries", 50)
	require.True(t, f.itemIn(jan, food).Available.IsZero())
	rta := f.rta(jan)

	require.ErrorIs(t, f.e.DeleteItem(jan, food, ""), core.ErrFundsPresent)
	assert.Equal(t, rta, f.rta(jan))
	assert.NotNil(t, f.itemIn(jan, food))

	// carried money spent down to zero still counts
	snacks := f.item(dec, bills, "Snacks")
	f.income(dec, 20)
	f.assign(dec, snacks, 20)
	f.spend(jan, f.checking, "Bills", "Snacks", 20)
	require.True(t, f.itemIn(jan, snacks).Assigned.IsZero())
	require.True(t, f.itemIn(jan, snacks).Available.IsZero())
	require.ErrorIs(t, f.e.DeleteItem(jan, snacks, ""), core.ErrFundsPresent)

	require.NoError(t, f.e.DeleteItem(jan, food, rent))
	assert.Equal(t, rta, f.rta(jan))
	assert.Equal(t, core.Dollars(-50), f.itemIn(jan, rent).Activity)
	f.checkInvariants()
}

func TestBulkDeleteIsOneCommand(t *testing.T) {
	f := newFixture(t)
	f.item(jan, f.group(jan, "Everyday"), "Groceries")
	ids := []core.TxID{
		f.spend(jan, f.checking, "Everyday", "Groceries", 10),
		f.spend(jan, f.checking, "Everyday", "Groceries", 20),
		f.spend(jan, f.checking, "Everyday", "Groceries", 30),
	}
	count := func() int { return len(f.e.Transactions(nil)) }
	require.Equal(t, 3, count())

	require.NoError(t, f.e.DeleteTransactions(ids...))
	assert.Equal(t, 0, count())

	ok, err := f.e.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, count())
	acct, _ := f.e.ledger.Account(f.checking)
	assert.Equal(t, core.Dollars(-60), acct.Balance)

	ok, err = f.e.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, count())
	f.checkInvariants()
}

func TestUndoRedoEmptyIsNoop(t *testing.T) {
	e := NewEngine(NewLedger(), history.New[Op]())
	ok, err := e.Undo()
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = e.Redo()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestNextUndoNamesTheCommand(t *testing.T) {
	f := newFixture(t)
	kind, ok := f.e.NextUndo()
	require.True(t, ok)
	assert.Equal(t, "create-account", kind)

	bills := f.group(jan, "Bills")
	f.assign(jan, f.item(jan, bills, "Rent"), 10)
	kind, _ = f.e.NextUndo()
	assert.Equal(t, "set-assigned", kind)

	_, err := f.e.Undo()
	require.NoError(t, err)
	kind, _ = f.e.NextUndo()
	assert.Equal(t, "create-item", kind)
}

func TestNewCommandClearsRedo(t *testing.T) {
	f := newFixture(t)
	rent := f.item(jan, f.group(jan, "Bills"), "Rent")
	f.assign(jan, rent, 100)
	f.assign(jan, rent, 200)

	_, err := f.e.Undo()
	require.NoError(t, err)
	require.True(t, f.e.CanRedo())

	f.assign(jan, rent, 300)
	ok, err := f.e.Redo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, core.Dollars(300), f.itemIn(jan, rent).Assigned)
}

func TestUndoChainRestoresEveryStep(t *testing.T) {
	f := newFixture(t)
	rent := f.item(jan, f.group(jan, "Bills"), "Rent")
	f.income(jan, 1000)
	f.assign(jan, rent, 100)
	f.assign(jan, rent, 250)

	for _, want := range []core.Money{core.Dollars(100), core.Money{}} {
		_, err := f.e.Undo()
		require.NoError(t, err)
		assert.Equal(t, want, f.itemIn(jan, rent).Assigned)
	}
	_, err := f.e.Undo() // income
	require.NoError(t, err)
	assert.True(t, f.rta(jan).IsZero())

	for _, want := range []core.Money{core.Dollars(1000), core.Dollars(900), core.Dollars(750)} {
		_, err := f.e.Redo()
		require.NoError(t, err)
		assert.Equal(t, want, f.rta(jan))
	}
	f.checkInvariants()
}

func TestAssignTextFallsBackToZero(t *testing.T) {
	f := newFixture(t)
	rent := f.item(jan, f.group(jan, "Bills"), "Rent")

	got, err := f.e.AssignText(jan, rent, "10+5")
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(15), got)

	got, err = f.e.AssignText(jan, rent, "10+abc")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
	assert.True(t, f.itemIn(jan, rent).Assigned.IsZero())
}

func TestMoveAssigned(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	food := f.item(jan, bills, "Food")
	f.income(jan, 1000)
	f.assign(jan, rent, 500)
	rta := f.rta(jan)

	require.NoError(t, f.e.MoveAssigned(jan, rent, food, core.Dollars(200)))
	assert.Equal(t, core.Dollars(300), f.itemIn(jan, rent).Assigned)
	assert.Equal(t, core.Dollars(200), f.itemIn(jan, food).Assigned)
	assert.Equal(t, rta, f.rta(jan))

	_, err := f.e.Undo()
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(500), f.itemIn(jan, rent).Assigned)
	assert.True(t, f.itemIn(jan, food).Assigned.IsZero())
	f.checkInvariants()
}

func TestPastEditCascadesForward(t *testing.T) {
	f := newFixture(t)
	f.e.Month(dec)
	ins := f.item(jan, f.group(jan, "Car"), "Insurance")
	f.income(jan, 1000)
	f.assign(jan, ins, 100)
	f.e.Month(mar)
	require.Equal(t, core.Dollars(100), f.itemIn(mar, ins).Available)

	decBefore := f.e.Month(dec)
	f.assign(jan, ins, 150)
	assert.Equal(t, core.Dollars(150), f.itemIn(feb, ins).Available)
	assert.Equal(t, core.Dollars(150), f.itemIn(mar, ins).Available)
	assert.Equal(t, core.Dollars(850), f.rta(mar))
	assert.Equal(t, decBefore, f.e.Month(dec))
	f.checkInvariants()
}

func TestRolloverIsIdempotent(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	food := f.item(jan, bills, "Food")
	f.income(jan, 1000)
	f.assign(jan, rent, 100)
	f.spend(jan, f.checking, "Bills", "Food", 25)
	f.e.Month(feb)

	l := f.e.ledger
	next := l.months[feb].Clone()
	first := Rollover(l.months[jan], next)
	snapshot := next.Clone()
	second := Rollover(l.months[jan], next)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, next)
	it, _ := next.Item(rent)
	assert.Equal(t, core.Dollars(100), it.CarryIn)
	it, _ = next.Item(food)
	assert.True(t, it.CarryIn.IsZero())
}

func TestStructureNames(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	f.item(jan, bills, "Power")

	_, err := f.e.CreateGroup(jan, "Bills")
	assert.ErrorIs(t, err, core.ErrDuplicateName)
	_, err = f.e.CreateGroup(jan, "bills")
	assert.NoError(t, err, "names are case-sensitive")
	_, err = f.e.CreateItem(jan, bills, "Rent")
	assert.ErrorIs(t, err, core.ErrDuplicateName)
	assert.ErrorIs(t, f.e.RenameItem(jan, rent, "Power"), core.ErrDuplicateName)
	assert.ErrorIs(t, f.e.RenameGroup(jan, bills, "bills"), core.ErrDuplicateName)
	_, err = f.e.CreateGroup(jan, "  ")
	assert.Error(t, err)

	assert.ErrorIs(t, f.e.DeleteGroup(jan, bills), core.ErrGroupNotEmpty)
	assert.ErrorIs(t, f.e.DeleteGroup(jan, PaymentGroupID), core.ErrProtectedGroup)
}

func TestRenameItemRecategorises(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	tx := f.spend(jan, f.checking, "Bills", "Rent", 400)

	require.NoError(t, f.e.RenameItem(jan, rent, "Housing"))
	got, _ := f.e.ledger.Transaction(tx)
	assert.Equal(t, "Housing", got.Item)
	assert.Equal(t, core.Dollars(-400), f.itemIn(jan, rent).Activity)

	require.NoError(t, f.e.RenameGroup(jan, bills, "Fixed"))
	got, _ = f.e.ledger.Transaction(tx)
	assert.Equal(t, "Fixed", got.Group)
	assert.Equal(t, "Housing", got.Item)
	assert.Equal(t, core.Dollars(-400), f.itemIn(jan, rent).Activity)

	_, err := f.e.Undo()
	require.NoError(t, err)
	_, err = f.e.Undo()
	require.NoError(t, err)
	got, _ = f.e.ledger.Transaction(tx)
	assert.Equal(t, "Bills", got.Group)
	assert.Equal(t, "Rent", got.Item)
	f.checkInvariants()
}

func TestStructurePropagatesForward(t *testing.T) {
	f := newFixture(t)
	f.e.Month(jan)
	f.e.Month(mar)
	bills := f.group(feb, "Bills")
	rent := f.item(feb, bills, "Rent")

	assert.Nil(t, f.e.Month(jan).Group(bills))
	assert.NotNil(t, f.e.Month(feb).Group(bills))
	it, _ := f.e.Month(mar).Item(rent)
	assert.NotNil(t, it)

	require.NoError(t, f.e.DeleteItem(mar, rent, ""))
	it, _ = f.e.Month(feb).Item(rent)
	assert.NotNil(t, it)
	it, _ = f.e.Month(mar).Item(rent)
	assert.Nil(t, it)
}

func TestUndoStructureAfterNavigation(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	f.item(jan, bills, "Rent")
	f.e.Month(mar) // materialised after the command

	_, err := f.e.Undo()
	require.NoError(t, err)
	assert.Empty(t, f.e.Month(mar).Group(bills).Items)
	_, err = f.e.Redo()
	require.NoError(t, err)
	assert.Len(t, f.e.Month(mar).Group(bills).Items, 1)
}

func TestOverflowClampsReadyToAssign(t *testing.T) {
	f := newFixture(t)
	bills := f.group(jan, "Bills")
	rent := f.item(jan, bills, "Rent")
	food := f.item(jan, bills, "Food")

	require.NoError(t, f.e.SetAssigned(jan, rent, core.Cents(math.MaxInt64)))
	good := f.rta(jan)
	require.NoError(t, f.e.SetAssigned(jan, food, core.Dollars(10)))

	mb := f.e.Month(jan)
	assert.ErrorIs(t, mb.ComputeErr, core.ErrAmountOverflow)
	assert.Equal(t, good, mb.ReadyToAssign)

	require.NoError(t, f.e.SetAssigned(jan, rent, core.Dollars(1)))
	assert.NoError(t, f.e.Month(jan).ComputeErr)
	f.checkInvariants()
}
