package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oumg-gold/oumg-console/internal/api"
	"github.com/oumg-gold/oumg-console/internal/render"
	"github.com/oumg-gold/oumg-console/internal/report"
	"github.com/oumg-gold/oumg-console/internal/utils"
)

const pageSize = 5

func todayKL() string {
	return utils.DateKL(utils.NowKL())
}

func (a *App) handleCallback(q tgbotapi.CallbackQuery) {
	// Always answer the callback to clear the client's spinner.
	_, _ = a.bot.Request(tgbotapi.NewCallback(q.ID, ""))

	if q.From == nil || q.Message == nil {
		return
	}
	userID := q.From.ID
	ctx := context.Background()

	isOp, isSuper, _ := a.db.IsOperator(ctx, userID)
	if !isOp {
		return
	}
	msgID := q.Message.MessageID

	parts := strings.Split(q.Data, "|")
	switch parts[0] {
	case "main":
		a.sendMainMenu(ctx, userID, msgID)
	case "cancel":
		a.clearAwait(userID)
		a.sendMainMenu(ctx, userID, msgID)
	case "noop":
		return

	case "signin":
		st := a.ensureState(userID)
		st.Await = AwaitSignInWallet
		a.send(userID, "Send the admin wallet address (0x…). The backend verifies it against its whitelist.")
	case "signout":
		_ = a.db.ClearSession(ctx, userID)
		a.send(userID, "✅ Signed out.")
		a.sendMainMenu(ctx, userID, msgID)

	case "price":
		a.sendPriceCard(ctx, userID, msgID)
	case "refresh":
		a.sched.RefreshNow()
		a.sendPriceCard(ctx, userID, msgID)
	case "manual":
		if !a.requireSession(ctx, userID) {
			return
		}
		st := a.ensureState(userID)
		*st = state{Await: AwaitManualBase}
		a.send(userID, "Base price (MYR/g)? Send \""+skipToken+"\" to leave it blank.")
	case "manualgo":
		a.onManualPublish(ctx, userID)

	case "hist":
		a.sendHistoryMenu(ctx, userID, msgID, atoiAt(parts, 1))
	case "users":
		a.sendUsersMenu(ctx, userID, msgID, atoiAt(parts, 1))
	case "bal":
		if len(parts) < 2 {
			return
		}
		a.sendBalanceCard(ctx, userID, msgID, parts[1])
	case "audits":
		a.sendAuditsMenu(ctx, userID, msgID, atoiAt(parts, 1))
	case "fund":
		if !a.requireSession(ctx, userID) {
			return
		}
		st := a.ensureState(userID)
		*st = state{Await: AwaitFundWallet}
		a.send(userID, "Which wallet should receive the RM credit?")

	case "mint":
		if !a.requireSession(ctx, userID) {
			return
		}
		st := a.ensureState(userID)
		*st = state{Await: AwaitMintWallet}
		a.send(userID, "Mint to which wallet?")
	case "burn":
		if !a.requireSession(ctx, userID) {
			return
		}
		st := a.ensureState(userID)
		*st = state{Await: AwaitBurnWallet}
		a.send(userID, "Burn from which wallet?")
	case "mintgo":
		a.onTokenOp(ctx, userID, "mint")
	case "burngo":
		a.onTokenOp(ctx, userID, "burn")

	case "contract":
		a.sendContractMenu(ctx, userID, msgID)
	case "pause":
		a.onPauseResume(ctx, userID, msgID, true)
	case "resume":
		a.onPauseResume(ctx, userID, msgID, false)
	case "oplog":
		a.sendTokenOpsLog(ctx, userID, msgID, atoiAt(parts, 1))

	case "reds":
		status := api.RedemptionPending
		if len(parts) > 1 {
			status = parts[1]
		}
		a.sendRedemptionsMenu(ctx, userID, msgID, status, atoiAt(parts, 2))
	case "redact":
		// redact|id|STATUS
		if len(parts) < 3 {
			return
		}
		a.onRedemptionAction(ctx, userID, parts[1], parts[2])

	case "ledger":
		a.sendLedgerMenu(ctx, userID, msgID, atoiAt(parts, 1))
	case "ledgeradd":
		if !a.requireSession(ctx, userID) {
			return
		}
		st := a.ensureState(userID)
		*st = state{Await: AwaitLedgerDate}
		a.send(userID, "Entry date (YYYY-MM-DD)? Send \""+skipToken+"\" for today.")

	case "export":
		a.sendExport(ctx, userID)
	case "backup":
		a.sendDBBackup(userID)

	case "ops":
		if !isSuper {
			a.send(userID, "⛔️ Only the primary operator can manage operators.")
			return
		}
		a.sendOperatorsMenu(ctx, userID, msgID)
	case "opadd":
		if !isSuper {
			return
		}
		st := a.ensureState(userID)
		st.Await = AwaitAddOperator
		a.send(userID, "Forward a message from the user, or send their numeric user id.")
	case "oprm":
		if !isSuper || len(parts) < 2 {
			return
		}
		rmID, _ := strconv.ParseInt(parts[1], 10, 64)
		_ = a.db.RemoveOperator(ctx, rmID)
		a.sendOperatorsMenu(ctx, userID, msgID)

	case "threshold":
		st := a.ensureState(userID)
		st.Await = AwaitThreshold
		a.send(userID, "Alert threshold in basis points? The scheduler notifies operators when the user-buy price moves at least this much. 0 disables.")

	case "help":
		a.sendHelp(userID, msgID)
	}
}

func atoiAt(parts []string, i int) int {
	if len(parts) <= i {
		return 0
	}
	n, _ := strconv.Atoi(parts[i])
	if n < 0 {
		return 0
	}
	return n
}

// requireSession checks for a valid admin sign-in before starting a
// flow that will need it, so operators fail fast.
func (a *App) requireSession(ctx context.Context, userID int64) bool {
	if _, ok := a.adminSession(ctx, userID); ok {
		return true
	}
	a.send(userID, needSignIn)
	return false
}

func (a *App) sendMainMenu(ctx context.Context, userID int64, msgID int) {
	var signedIn string
	sess, ok := a.adminSession(ctx, userID)
	if ok {
		signedIn = "🔑 Signed in: " + shortAddr(sess.Wallet)
	} else {
		signedIn = "🔒 Not signed in (read-only)"
	}

	text := "🥇 OUMG operations console\n\n" + signedIn + "\n\nPick a section:"
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Price", "price"),
			tgbotapi.NewInlineKeyboardButtonData("📜 History", "hist|0"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🪙 Mint", "mint"),
			tgbotapi.NewInlineKeyboardButtonData("🔥 Burn", "burn"),
			tgbotapi.NewInlineKeyboardButtonData("⛓ Contract", "contract"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Users", "users|0"),
			tgbotapi.NewInlineKeyboardButtonData("📨 Redemptions", "reds|PENDING|0"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏅 Gold ledger", "ledger|0"),
			tgbotapi.NewInlineKeyboardButtonData("🧾 Audits", "audits|0"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Export xlsx", "export"),
			tgbotapi.NewInlineKeyboardButtonData("📦 Backup DB", "backup"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Operators", "ops"),
			tgbotapi.NewInlineKeyboardButtonData("📏 Alert threshold", "threshold"),
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "help"),
		),
	}
	if ok {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Sign out", "signout"),
		))
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 Sign in", "signin"),
		))
	}
	a.editOrSendMenu(userID, msgID, text, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (a *App) sendPriceCard(ctx context.Context, userID int64, msgID int) {
	snap, err := a.api.CurrentPrice(ctx)
	text := ""
	if err != nil {
		text = "❌ Could not fetch the current price: " + err.Error()
	} else {
		text = render.SnapshotCard(snap, a.cfg.FallbackPriceMYR)
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "refresh"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ New sheet", "manual"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📜 History", "hist|0"),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func (a *App) onManualPublish(ctx context.Context, userID int64) {
	a.stateMu.Lock()
	st, ok := a.states[userID]
	var upd api.ManualPriceUpdate
	if ok {
		upd = st.Manual
	}
	a.stateMu.Unlock()
	a.clearAwait(userID)

	if upd.MyrPerG == nil && upd.MyrPerGBuy == nil && upd.MyrPerGSell == nil {
		a.send(userID, "Nothing to publish; start the sheet again.")
		return
	}
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	if err := a.api.SetManualPrice(ctx, sess, upd); err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}
	a.send(userID, "✅ Pricing sheet published.")
	a.sched.RefreshNow()
	a.sendPriceCard(ctx, userID, 0)
}

func (a *App) onTokenOp(ctx context.Context, userID int64, action string) {
	a.stateMu.Lock()
	st, ok := a.states[userID]
	var wallet string
	var grams float64
	if ok {
		wallet, grams = st.Wallet, st.Grams
	}
	a.stateMu.Unlock()
	a.clearAwait(userID)

	if wallet == "" || grams <= 0 {
		a.send(userID, "The operation expired; start again from the main menu.")
		return
	}
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}

	var res api.TokenOpResult
	var err error
	if action == "mint" {
		res, err = a.api.BuyMint(ctx, sess, wallet, grams)
	} else {
		res, err = a.api.SellBurn(ctx, sess, wallet, grams)
	}
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}
	label := "Mint"
	if action != "mint" {
		label = "Burn"
	}
	text := fmt.Sprintf("✅ %s done: %s g for %s", label, strconv.FormatFloat(grams, 'f', -1, 64), shortAddr(wallet))
	if res.TxHash != "" {
		text += "\nTx: " + res.TxHash
	}
	a.send(userID, text)
}

func (a *App) sendHistoryMenu(ctx context.Context, userID int64, msgID int, page int) {
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	snaps, err := a.api.ListSnapshots(ctx, sess, api.Page{Limit: pageSize, Offset: page * pageSize})
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📜 Price snapshots (page %d)\n\n", page+1))
	if len(snaps) == 0 {
		b.WriteString("No snapshots on this page.")
	}
	for _, s := range snaps {
		b.WriteString(render.SnapshotRow(s) + "\n")
	}

	kb := pagedKeyboard("hist", page, len(snaps) == pageSize, nil)
	a.editOrSendMenu(userID, msgID, b.String(), kb)
}

func (a *App) sendUsersMenu(ctx context.Context, userID int64, msgID int, page int) {
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	users, err := a.api.ListUsers(ctx, sess, api.Page{Limit: pageSize, Offset: page * pageSize})
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("👥 Users (page %d)\n\n", page+1))
	var extra [][]tgbotapi.InlineKeyboardButton
	for _, u := range users {
		b.WriteString(render.UserRow(u) + "\n")
		extra = append(extra, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 "+shortAddr(u.Wallet), "bal|"+u.Wallet),
		))
	}
	if len(users) == 0 {
		b.WriteString("No users on this page.")
	}
	extra = append(extra, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💵 Fund preset", "fund"),
	))

	kb := pagedKeyboard("users", page, len(users) == pageSize, extra)
	a.editOrSendMenu(userID, msgID, b.String(), kb)
}

func (a *App) sendBalanceCard(ctx context.Context, userID int64, msgID int, wallet string) {
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	u, err := a.api.UserBalances(ctx, sess, wallet)
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}
	text := fmt.Sprintf("👤 %s\n\nRM credit: %s\nRM spent: %s\nOUMG held: %s\nUpdated: %s",
		u.Wallet,
		render.MYRValue(u.RMCredit), render.MYRValue(u.RMSpent),
		render.Grams(u.OUMGGrams), render.DateTime(u.UpdatedAt))
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "users|0"),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func (a *App) sendAuditsMenu(ctx context.Context, userID int64, msgID int, page int) {
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	audits, err := a.api.ListAudits(ctx, sess, api.Page{Limit: pageSize, Offset: page * pageSize})
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧾 Audit trail (page %d)\n\n", page+1))
	if len(audits) == 0 {
		b.WriteString("No entries on this page.")
	}
	for _, row := range audits {
		b.WriteString(render.AuditRow(row) + "\n")
	}
	kb := pagedKeyboard("audits", page, len(audits) == pageSize, nil)
	a.editOrSendMenu(userID, msgID, b.String(), kb)
}

func (a *App) sendContractMenu(ctx context.Context, userID int64, msgID int) {
	paused, err := a.api.ContractStatus(ctx)
	var text string
	if err != nil {
		text = "❌ Could not read the contract status: " + err.Error()
	} else if paused {
		text = "⛓ Contract status: ⏸ PAUSED\n\nTransfers, mints and burns are blocked on-chain."
	} else {
		text = "⛓ Contract status: ▶️ active"
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏸ Pause", "pause"),
			tgbotapi.NewInlineKeyboardButtonData("▶️ Resume", "resume"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Ops log", "oplog|0"),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func (a *App) onPauseResume(ctx context.Context, userID int64, msgID int, pause bool) {
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	var err error
	if pause {
		_, err = a.api.PauseContract(ctx, sess)
	} else {
		_, err = a.api.ResumeContract(ctx, sess)
	}
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}
	a.sendContractMenu(ctx, userID, msgID)
}

func (a *App) sendTokenOpsLog(ctx context.Context, userID int64, msgID int, page int) {
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	logs, err := a.api.ListTokenOpsLogs(ctx, sess, api.TokenOpsLogQuery{Page: api.Page{Limit: pageSize, Offset: page * pageSize}})
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📖 Pause/resume log (page %d)\n\n", page+1))
	if len(logs) == 0 {
		b.WriteString("No entries on this page.")
	}
	for _, l := range logs {
		b.WriteString(render.TokenOpsLogRow(l) + "\n")
	}
	kb := pagedKeyboard("oplog", page, len(logs) == pageSize, [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⛓ Contract", "contract"),
		),
	})
	a.editOrSendMenu(userID, msgID, b.String(), kb)
}

func (a *App) sendRedemptionsMenu(ctx context.Context, userID int64, msgID int, status string, page int) {
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	q := api.RedemptionQuery{Page: api.Page{Limit: pageSize, Offset: page * pageSize}}
	if status != "ALL" {
		q.Status = status
	}
	rows, err := a.api.ListRedemptions(ctx, sess, q)
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📨 Redemptions — %s (page %d)\n\n", status, page+1))
	if len(rows) == 0 {
		b.WriteString("Nothing here.")
	}
	var extra [][]tgbotapi.InlineKeyboardButton
	for _, r := range rows {
		b.WriteString(render.RedemptionRow(r) + "\n")
		switch r.Status {
		case api.RedemptionPending:
			extra = append(extra, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ "+shortID(r.ID), "redact|"+r.ID+"|"+api.RedemptionApproved),
				tgbotapi.NewInlineKeyboardButtonData("❌ "+shortID(r.ID), "redact|"+r.ID+"|"+api.RedemptionRejected),
			))
		case api.RedemptionApproved:
			extra = append(extra, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🏁 "+shortID(r.ID), "redact|"+r.ID+"|"+api.RedemptionCompleted),
			))
		}
	}
	extra = append(extra, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏳ Pending", "reds|PENDING|0"),
		tgbotapi.NewInlineKeyboardButtonData("✅ Approved", "reds|APPROVED|0"),
		tgbotapi.NewInlineKeyboardButtonData("📋 All", "reds|ALL|0"),
	))

	kb := pagedKeyboardWithStatus("reds", status, page, len(rows) == pageSize, extra)
	a.editOrSendMenu(userID, msgID, b.String(), kb)
}

func (a *App) onRedemptionAction(ctx context.Context, userID int64, id, status string) {
	if status == api.RedemptionRejected {
		st := a.ensureState(userID)
		*st = state{Await: AwaitRedemptionNote, RedemptionID: id, RedemptionStatus: status}
		a.send(userID, "Why is this redemption rejected? Send a note, or \""+skipToken+"\" for none.")
		return
	}
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	if err := a.api.UpdateRedemption(ctx, sess, id, api.RedemptionPatch{Status: status}); err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}
	a.send(userID, "✅ Redemption "+strings.ToLower(status)+".")
	a.sendRedemptionsMenu(ctx, userID, 0, api.RedemptionPending, 0)
}

func (a *App) sendLedgerMenu(ctx context.Context, userID int64, msgID int, page int) {
	sess, ok := a.adminSession(ctx, userID)
	if !ok {
		a.send(userID, needSignIn)
		return
	}
	rows, err := a.api.ListGoldLedger(ctx, sess, api.LedgerQuery{Page: api.Page{Limit: pageSize, Offset: page * pageSize}})
	if err != nil {
		a.reportAPIError(ctx, userID, err)
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏅 Physical gold ledger (page %d)\n\n", page+1))
	if len(rows) == 0 {
		b.WriteString("No entries on this page.")
	}
	for _, e := range rows {
		b.WriteString(render.LedgerRow(e) + "\n")
	}
	kb := pagedKeyboard("ledger", page, len(rows) == pageSize, [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ New entry", "ledgeradd"),
		),
	})
	a.editOrSendMenu(userID, msgID, b.String(), kb)
}

// sendExport builds the xlsx workbook from the stored price history and
// the backend's gold ledger and uploads it as a document.
func (a *App) sendExport(ctx context.Context, userID int64) {
	history, err := a.db.ListHistory(ctx, 0)
	if err != nil {
		a.send(userID, "❌ Could not read the price history: "+err.Error())
		return
	}

	var ledger []api.GoldLedgerEntry
	if sess, ok := a.adminSession(ctx, userID); ok {
		ledger, err = a.api.ListGoldLedger(ctx, sess, api.LedgerQuery{Page: api.Page{Limit: 1000}})
		if err != nil {
			// Ship the workbook anyway; the history sheet is local.
			a.send(userID, "⚠️ Gold ledger fetch failed, exporting price history only: "+err.Error())
			ledger = nil
		}
	}

	data, err := report.Build(history, ledger)
	if err != nil {
		a.send(userID, "❌ Export failed: "+err.Error())
		return
	}
	doc := tgbotapi.NewDocument(userID, tgbotapi.FileBytes{Name: report.Filename(), Bytes: data})
	doc.Caption = "📤 Price history + gold ledger"
	_, _ = a.bot.Send(doc)
}

func (a *App) sendDBBackup(userID int64) {
	tmp := filepath.Join(a.dataDir, fmt.Sprintf("backup_%d_console.db", time.Now().Unix()))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := a.db.BackupTo(ctx, tmp); err != nil {
		a.send(userID, "❌ Backup failed: "+err.Error())
		return
	}
	doc := tgbotapi.NewDocument(userID, tgbotapi.FilePath(tmp))
	doc.Caption = "📦 Console DB backup"
	_, _ = a.bot.Send(doc)
	_ = os.Remove(tmp)
}

func (a *App) sendOperatorsMenu(ctx context.Context, userID int64, msgID int) {
	ops, _ := a.db.ListOperators(ctx)

	var b strings.Builder
	b.WriteString("👤 Operators\n\n")
	for _, op := range ops {
		tag := ""
		if op.IsSuper {
			tag = " (super)"
		}
		b.WriteString(fmt.Sprintf("• %d%s\n", op.UserID, tag))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add operator", "opadd"),
		),
	}
	for _, op := range ops {
		if op.IsSuper {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("❌ Remove %d", op.UserID), fmt.Sprintf("oprm|%d", op.UserID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
	))
	a.editOrSendMenu(userID, msgID, b.String(), tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (a *App) sendHelp(userID int64, msgID int) {
	text := "❓ Quick guide\n\n" +
		"1) Sign in with your admin wallet; the backend checks it against its whitelist. The sign-in lasts 7 days.\n" +
		"2) Price: the current sheet, a manual-refresh button and the \"new sheet\" flow. Blank fields are derived from the ones you fill in.\n" +
		"3) Mint/Burn ask for a wallet and grams, then confirm with a cost estimate at the current user-buy price.\n" +
		"4) Redemptions: approve or reject pending requests; approved ones can be completed.\n" +
		"5) The scheduler refreshes the price on a Kuala Lumpur minute grid, stores changes and alerts operators on big moves.\n" +
		"6) Export ships an xlsx with the stored price history and the gold ledger."
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func pagedKeyboard(verb string, page int, hasNext bool, extra [][]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	rows = append(rows, extra...)

	nav := []tgbotapi.InlineKeyboardButton{}
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("%s|%d", verb, page-1)))
	}
	if hasNext {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s|%d", verb, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
	))
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func pagedKeyboardWithStatus(verb, status string, page int, hasNext bool, extra [][]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	rows = append(rows, extra...)

	nav := []tgbotapi.InlineKeyboardButton{}
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("%s|%s|%d", verb, status, page-1)))
	}
	if hasNext {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s|%s|%d", verb, status, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
	))
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
