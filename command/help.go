package command

import "context"

const helpText = `
Available commands:
- add user [ldap] [first name] [last name] [email] [level]
- show me my organization as [ldap]
- add aop name "[name]" amount [amount]
- add budget aop [id] amount [amount] project "[name]"
- add cost center code [code] name "[name]"
- allocate aop [id] cost center [code] amount [amount]
- show aop [id]
- set aop [id] state [draft|active|eol]
- set manager of [ldap] to [ldap|none]
- deactivate user [ldap]
- list users
- list aops
- list cost centers
- list budgets [aop [id]]
- help
`

func (b *Bot) help(_ context.Context, _ string) (string, error) {
	return helpText, nil
}
