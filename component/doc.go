// Package component defines the contract between a host and a plugin
// component.
//
// A Component exposes a fixed set of typed input and output slots. The host
// allocates storage for each slot in the component's Memory, binds the
// addresses, and repeatedly calls Process. Done is called once after the
// last Process and Dispose releases the instance.
//
// # Lifecycle
//
//	New -> SetInputSlot/SetOutputSlot -> Process* -> Done -> Dispose
//
// Raw implementations are not required to validate their inputs. Guard wraps
// any Component with a state machine that turns misuse into errors:
//
//	g, err := component.Guard(c)
//	if err != nil {
//	    return err
//	}
//	err = g.Process(ctx) // unbound slot error until every slot is bound
//
// # Versioning
//
// Factories declare the API version they were built against. Hosts check it
// with Version.Check against a semver constraint, DefaultConstraint unless
// configured otherwise.
package component
