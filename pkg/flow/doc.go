/*
Package flow implements the step-progression state machine of the creative wizard.

	template-selection -> input-collection -> generating -> result
	                                              |
	                                              +-> error

The Machine holds no session state. Each operation mutates the *domain.Session it
is given and reports what happened in a Transition. Calls that do not apply to the
current state (unknown template or input, wrong step) are silent no-ops with
Transition.Changed == false, so a malformed user action never breaks a session.

A session is in generating only when every required input has been collected.
*/
package flow
