package main

// SubsetSumOracle returns a phase oracle that multiplies |x⟩ by -1 when
// the values selected by x sum to target modulo 2^len(val). The value
// register and aux start and end in |0⟩.
func SubsetSumOracle(target int, values []int, idx, val, aux QuantumRegister) *Circuit {
	a := aux.Qubit(0)
	adder := MultiAdder(values, idx, val, AdderOptions{})

	c := NewCircuit("oracle", idx, val, aux)
	c.X(a)
	c.H(a)
	c = c.Compose(adder)

	// Map the target pattern to all ones so the MCX fires on it.
	var flips []int
	for i, q := range val.Qubits {
		if (target>>i)&1 == 0 {
			flips = append(flips, q)
		}
	}
	for _, q := range flips {
		c.X(q)
	}
	c.MCX(val.Qubits, a)
	for _, q := range flips {
		c.X(q)
	}

	c = c.Compose(adder.Inverse())
	c.H(a)
	c.X(a)
	c.Name = "oracle"
	return c
}
