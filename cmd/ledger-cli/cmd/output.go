package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"helium-ledger/internal/service"
	"helium-ledger/pkg/address"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/wallet/types"
)

const deviceWarning = "WARNING: do not use this output as the source of truth, instead rely on what the device displays"

type row struct{ key, value string }

func addrOf(bin []byte) string {
	a, err := address.FromBin(bin)
	if err != nil {
		return "<invalid>"
	}
	return a.String()
}

func unitsOf(bin []byte) string {
	a, err := address.FromBin(bin)
	if err != nil {
		return address.MainNet.Units()
	}
	return a.Network.Units()
}

func amount(bones uint64, units string) string {
	return types.Amount(bones).String() + " " + units
}

// proposalRows lists what the user is about to approve on the device.
func proposalRows(txn types.Txn) []row {
	rows := []row{{"Type", txn.Kind().String()}}
	switch t := txn.(type) {
	case *types.Payment:
		u := unitsOf(t.Payer)
		rows = append(rows,
			row{"Payee", addrOf(t.Payee)},
			row{"Amount", amount(t.Amount, u)},
			row{"Nonce", fmt.Sprint(t.Nonce)},
		)
	case *types.StakeValidator:
		rows = append(rows,
			row{"Validator", addrOf(t.Address)},
			row{"Stake", amount(t.Stake, unitsOf(t.Owner))},
		)
	case *types.UnstakeValidator:
		rows = append(rows,
			row{"Validator", addrOf(t.Address)},
			row{"Stake Amount", amount(t.StakeAmount, unitsOf(t.Owner))},
			row{"Stake Release Height", fmt.Sprint(t.StakeReleaseHeight)},
		)
	case *types.TransferValidatorStake:
		u := unitsOf(t.OldOwner)
		rows = append(rows,
			row{"Old Validator", addrOf(t.OldAddress)},
			row{"New Validator", addrOf(t.NewAddress)},
			row{"Old Owner", addrOf(t.OldOwner)},
			row{"New Owner", addrOf(t.NewOwner)},
			row{"Stake Amount", amount(t.StakeAmount, u)},
			row{"Payment to Old Owner", amount(t.PaymentAmount, u)},
		)
	}
	return append(rows, row{"Fee", fmt.Sprintf("%d DC", txn.GetFee())})
}

func printProposal(w io.Writer, txn types.Txn) {
	fmt.Fprintln(w, "Creating the following transaction:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range proposalRows(txn) {
		fmt.Fprintf(tw, "%s\t%s\n", r.key, r.value)
	}
	tw.Flush()
	fmt.Fprintln(w, deviceWarning)
	fmt.Fprintln(w, "Please confirm the transaction on the device.")
}

func printOutcome(w io.Writer, out *service.Outcome) {
	switch out.State {
	case service.Done:
		fmt.Fprintf(w, "Submitted on %s\n", out.Network)
		fmt.Fprintf(w, "Hash: %s\n", out.Hash)
		if out.TxnHash != "" && out.TxnHash != out.Hash {
			fmt.Fprintf(w, "Txn hash: %s\n", out.TxnHash)
		}
	case service.UserDenied:
		fmt.Fprintln(w, "Transaction not confirmed")
	case service.InsufficientBalance:
		u := out.Network.Units()
		fmt.Fprintf(w, "Account balance insufficient. %s available, %s requested\n",
			amount(out.Balance.Bones(), u), amount(out.Requested.Bones(), u))
	case service.Incomplete:
		fmt.Fprintln(w, "Transaction partially signed. Send this envelope to the counter-party:")
		fmt.Fprintln(w, out.Envelope)
	default:
		fmt.Fprintf(w, "Flow ended in state %s\n", out.State)
	}
}

func printBalances(w io.Writer, rows []service.AccountBalance) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Account\tAddress\tBalance\tData Credits\tSecurity Tokens")
	for _, r := range rows {
		if r.Err != nil {
			_, msg := errno.Decode(r.Err)
			fmt.Fprintf(tw, "%d\t%s\terror: %s\t\t\n", r.Account, r.Address, msg)
			continue
		}
		u := r.Address.Network.Units()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", r.Account, r.Address,
			amount(r.State.Balance.Bones(), u), r.State.DCBalance, r.State.SecBalance)
	}
	tw.Flush()
}

// readEnvelope takes the envelope from in. Piped input is read whole; at a terminal the
// user is prompted and a single line is read.
func readEnvelope(in io.Reader, prompt io.Writer, tty bool) (string, error) {
	var (
		raw string
		err error
	)
	if tty {
		fmt.Fprint(prompt, "Paste the transaction envelope: ")
		raw, err = bufio.NewReader(in).ReadString('\n')
		if err == io.EOF {
			err = nil
		}
	} else {
		var b []byte
		b, err = io.ReadAll(in)
		raw = string(b)
	}
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty input", errno.ErrInvalidEnvelope)
	}
	return raw, nil
}
