package propagation

import "math"

// model holds the initialized SGP4/SDP4 state for one element set. It is
// never written after init, so one model may serve concurrent callers.
type model struct {
	grav  gravConsts
	norad int

	// Mean elements at epoch (radians, rad/min).
	ecco, inclo, nodeo, argpo, mo, noKozai, no, bstar float64

	isimp     bool
	deepSpace bool

	aycof, con41, cc1, cc4, cc5, d2, d3, d4, delmo, eta float64
	argpdot, omgcof, sinmao, t2cof, t3cof, t4cof, t5cof  float64
	x1mth2, x7thm1, mdot, nodedot, xlcof, xmcof, nodecf  float64

	gsto float64
	ds   deepSpace
}

// newModel runs the SGP4 initialization. epoch is days since 1949 Dec 31
// 00:00 UT; angles are radians and noKozai is rad/min.
func newModel(g Gravity, norad int, epoch, bstar, ecco, argpo, inclo, mo, noKozai, nodeo float64) (*model, error) {
	m := &model{
		grav:    g.consts(),
		norad:   norad,
		ecco:    ecco,
		inclo:   inclo,
		nodeo:   nodeo,
		argpo:   argpo,
		mo:      mo,
		noKozai: noKozai,
		bstar:   bstar,
	}
	c := m.grav

	if math.IsNaN(noKozai) || noKozai <= 0 {
		return nil, &PropagationError{Code: CodeMeanMotion, NORADID: norad, Value: noKozai}
	}
	if math.IsNaN(ecco) || ecco < 0 || ecco >= 1 {
		return nil, &PropagationError{Code: CodeEccentricity, NORADID: norad, Value: ecco}
	}

	ss := 78.0/c.radiusEarthKm + 1.0
	qzms2t := math.Pow((120.0-78.0)/c.radiusEarthKm, 4)

	// Recover the Brouwer mean motion from the Kozai value.
	eccsq := ecco * ecco
	omeosq := 1.0 - eccsq
	rteosq := math.Sqrt(omeosq)
	cosio := math.Cos(inclo)
	cosio2 := cosio * cosio
	ak := math.Pow(c.xke/noKozai, x2o3)
	d1 := 0.75 * c.j2 * (3.0*cosio2 - 1.0) / (rteosq * omeosq)
	del := d1 / (ak * ak)
	adel := ak * (1.0 - del*del - del*(1.0/3.0+134.0*del*del/81.0))
	del = d1 / (adel * adel)
	m.no = noKozai / (1.0 + del)

	ao := math.Pow(c.xke/m.no, x2o3)
	sinio := math.Sin(inclo)
	po := ao * omeosq
	con42 := 1.0 - 5.0*cosio2
	m.con41 = -con42 - cosio2 - cosio2
	posq := po * po
	rp := ao * (1.0 - ecco)
	m.gsto = gstime(epoch + jd1950)

	if rp < 1.0 {
		return nil, &PropagationError{Code: CodeSubOrbital, NORADID: norad, Value: (rp - 1.0) * c.radiusEarthKm}
	}

	m.isimp = rp < 220.0/c.radiusEarthKm+1.0

	sfour := ss
	qzms24 := qzms2t
	perige := (rp - 1.0) * c.radiusEarthKm
	if perige < 156.0 {
		sfour = perige - 78.0
		if perige < 98.0 {
			sfour = 20.0
		}
		qzms24 = math.Pow((120.0-sfour)/c.radiusEarthKm, 4)
		sfour = sfour/c.radiusEarthKm + 1.0
	}

	pinvsq := 1.0 / posq
	tsi := 1.0 / (ao - sfour)
	m.eta = ao * ecco * tsi
	etasq := m.eta * m.eta
	eeta := ecco * m.eta
	psisq := math.Abs(1.0 - etasq)
	coef := qzms24 * math.Pow(tsi, 4)
	coef1 := coef / math.Pow(psisq, 3.5)
	cc2 := coef1 * m.no * (ao*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.375*c.j2*tsi/psisq*m.con41*(8.0+3.0*etasq*(8.0+etasq)))
	m.cc1 = bstar * cc2
	cc3 := 0.0
	if ecco > 1.0e-4 {
		cc3 = -2.0 * coef * tsi * c.j3oj2 * m.no * sinio / ecco
	}
	m.x1mth2 = 1.0 - cosio2
	m.cc4 = 2.0 * m.no * coef1 * ao * omeosq *
		(m.eta*(2.0+0.5*etasq) + ecco*(0.5+2.0*etasq) -
			c.j2*tsi/(ao*psisq)*(-3.0*m.con41*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
				0.75*m.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*argpo)))
	m.cc5 = 2.0 * coef1 * ao * omeosq * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)

	cosio4 := cosio2 * cosio2
	temp1 := 1.5 * c.j2 * pinvsq * m.no
	temp2 := 0.5 * temp1 * c.j2 * pinvsq
	temp3 := -0.46875 * c.j4 * pinvsq * pinvsq * m.no
	m.mdot = m.no + 0.5*temp1*rteosq*m.con41 + 0.0625*temp2*rteosq*(13.0-78.0*cosio2+137.0*cosio4)
	m.argpdot = -0.5*temp1*con42 + 0.0625*temp2*(7.0-114.0*cosio2+395.0*cosio4) +
		temp3*(3.0-36.0*cosio2+49.0*cosio4)
	xhdot1 := -temp1 * cosio
	m.nodedot = xhdot1 + (0.5*temp2*(4.0-19.0*cosio2)+2.0*temp3*(3.0-7.0*cosio2))*cosio
	xpidot := m.argpdot + m.nodedot
	m.omgcof = bstar * cc3 * math.Cos(argpo)
	if ecco > 1.0e-4 {
		m.xmcof = -x2o3 * coef * bstar / eeta
	}
	m.nodecf = 3.5 * omeosq * xhdot1 * m.cc1
	m.t2cof = 1.5 * m.cc1
	if math.Abs(cosio+1.0) > 1.5e-12 {
		m.xlcof = -0.25 * c.j3oj2 * sinio * (3.0 + 5.0*cosio) / (1.0 + cosio)
	} else {
		m.xlcof = -0.25 * c.j3oj2 * sinio * (3.0 + 5.0*cosio) / 1.5e-12
	}
	m.aycof = -0.5 * c.j3oj2 * sinio
	m.delmo = math.Pow(1.0+m.eta*math.Cos(mo), 3)
	m.sinmao = math.Sin(mo)
	m.x7thm1 = 7.0*cosio2 - 1.0

	if twoPi/m.no >= deepSpacePeriodMin {
		m.deepSpace = true
		m.isimp = true
		m.ds = initDeepSpace(m, epoch, eccsq, xpidot)
	}

	if !m.isimp {
		cc1sq := m.cc1 * m.cc1
		m.d2 = 4.0 * ao * tsi * cc1sq
		temp := m.d2 * tsi * m.cc1 / 3.0
		m.d3 = (17.0*ao + sfour) * temp
		m.d4 = 0.5 * temp * ao * tsi * (221.0*ao + 31.0*sfour) * m.cc1
		m.t3cof = m.d2 + 2.0*cc1sq
		m.t4cof = 0.25 * (3.0*m.d3 + m.cc1*(12.0*m.d2+10.0*cc1sq))
		m.t5cof = 0.2 * (3.0*m.d4 + 12.0*m.cc1*m.d3 + 6.0*m.d2*m.d2 + 15.0*cc1sq*(2.0*m.d2+cc1sq))
	}

	if _, _, err := m.propagate(0); err != nil {
		return nil, err
	}
	return m, nil
}

// propagate returns TEME position (km) and velocity (km/s) tsince minutes
// from epoch.
func (m *model) propagate(tsince float64) (r, v [3]float64, err error) {
	c := m.grav
	vkmpersec := c.radiusEarthKm * c.xke / 60.0
	fail := func(code ErrorCode, value float64) ([3]float64, [3]float64, error) {
		return [3]float64{}, [3]float64{}, &PropagationError{Code: code, NORADID: m.norad, Minutes: tsince, Value: value}
	}

	t := tsince
	xmdf := m.mo + m.mdot*t
	argpdf := m.argpo + m.argpdot*t
	nodedf := m.nodeo + m.nodedot*t
	argpm := argpdf
	mm := xmdf
	t2 := t * t
	nodem := nodedf + m.nodecf*t2
	tempa := 1.0 - m.cc1*t
	tempe := m.bstar * m.cc4 * t
	templ := m.t2cof * t2

	if !m.isimp {
		delomg := m.omgcof * t
		delmtemp := 1.0 + m.eta*math.Cos(xmdf)
		delm := m.xmcof * (delmtemp*delmtemp*delmtemp - m.delmo)
		temp := delomg + delm
		mm = xmdf + temp
		argpm = argpdf - temp
		t3 := t2 * t
		t4 := t3 * t
		tempa = tempa - m.d2*t2 - m.d3*t3 - m.d4*t4
		tempe = tempe + m.bstar*m.cc5*(math.Sin(mm)-m.sinmao)
		templ = templ + m.t3cof*t3 + t4*(m.t4cof+t*m.t5cof)
	}

	nm := m.no
	em := m.ecco
	inclm := m.inclo
	if m.deepSpace {
		em, argpm, inclm, mm, nodem, nm = m.ds.secular(m, t, em, argpm, inclm, mm, nodem)
	}

	if nm <= 0.0 {
		return fail(CodeMeanMotion, nm)
	}
	am := math.Pow(c.xke/nm, x2o3) * tempa * tempa
	nm = c.xke / math.Pow(am, 1.5)
	em -= tempe

	if em >= 1.0 || em < -0.001 {
		return fail(CodeEccentricity, em)
	}
	if em < 1.0e-6 {
		em = 1.0e-6
	}
	mm += m.no * templ
	xlm := mm + argpm + nodem

	nodem = math.Mod(nodem, twoPi)
	argpm = math.Mod(argpm, twoPi)
	xlm = math.Mod(xlm, twoPi)
	mm = math.Mod(xlm-argpm-nodem, twoPi)

	sinim := math.Sin(inclm)
	cosim := math.Cos(inclm)

	ep := em
	xincp := inclm
	argpp := argpm
	nodep := nodem
	mp := mm
	sinip := sinim
	cosip := cosim
	aycof, xlcof := m.aycof, m.xlcof
	con41, x1mth2, x7thm1 := m.con41, m.x1mth2, m.x7thm1

	if m.deepSpace {
		ep, xincp, nodep, argpp, mp = m.ds.periodics(t, ep, xincp, nodep, argpp, mp)
		if xincp < 0.0 {
			xincp = -xincp
			nodep += math.Pi
			argpp -= math.Pi
		}
		if ep < 0.0 || ep > 1.0 {
			return fail(CodeEccentricity, ep)
		}

		sinip = math.Sin(xincp)
		cosip = math.Cos(xincp)
		aycof = -0.5 * c.j3oj2 * sinip
		if math.Abs(cosip+1.0) > 1.5e-12 {
			xlcof = -0.25 * c.j3oj2 * sinip * (3.0 + 5.0*cosip) / (1.0 + cosip)
		} else {
			xlcof = -0.25 * c.j3oj2 * sinip * (3.0 + 5.0*cosip) / 1.5e-12
		}
		cosisq := cosip * cosip
		con41 = 3.0*cosisq - 1.0
		x1mth2 = 1.0 - cosisq
		x7thm1 = 7.0*cosisq - 1.0
	}

	// Long period periodics.
	axnl := ep * math.Cos(argpp)
	temp := 1.0 / (am * (1.0 - ep*ep))
	aynl := ep*math.Sin(argpp) + temp*aycof
	xl := mp + argpp + nodep + temp*xlcof*axnl

	// Kepler's equation.
	u := math.Mod(xl-nodep, twoPi)
	eo1 := u
	tem5 := 9999.9
	var sineo1, coseo1 float64
	for ktr := 1; math.Abs(tem5) >= 1.0e-12 && ktr <= 10; ktr++ {
		sineo1 = math.Sin(eo1)
		coseo1 = math.Cos(eo1)
		tem5 = 1.0 - coseo1*axnl - sineo1*aynl
		tem5 = (u - aynl*coseo1 + axnl*sineo1 - eo1) / tem5
		if math.Abs(tem5) >= 0.95 {
			tem5 = math.Copysign(0.95, tem5)
		}
		eo1 += tem5
	}

	// Short period periodics.
	ecose := axnl*coseo1 + aynl*sineo1
	esine := axnl*sineo1 - aynl*coseo1
	el2 := axnl*axnl + aynl*aynl
	pl := am * (1.0 - el2)
	if pl < 0.0 {
		return fail(CodeSemiLatusRectum, pl)
	}

	rl := am * (1.0 - ecose)
	rdotl := math.Sqrt(am) * esine / rl
	rvdotl := math.Sqrt(pl) / rl
	betal := math.Sqrt(1.0 - el2)
	temp = esine / (1.0 + betal)
	sinu := am / rl * (sineo1 - aynl - axnl*temp)
	cosu := am / rl * (coseo1 - axnl + aynl*temp)
	su := math.Atan2(sinu, cosu)
	sin2u := (cosu + cosu) * sinu
	cos2u := 1.0 - 2.0*sinu*sinu
	temp = 1.0 / pl
	temp1 := 0.5 * c.j2 * temp
	temp2 := temp1 * temp

	mrt := rl*(1.0-1.5*temp2*betal*con41) + 0.5*temp1*x1mth2*cos2u
	su -= 0.25 * temp2 * x7thm1 * sin2u
	xnode := nodep + 1.5*temp2*cosip*sin2u
	xinc := xincp + 1.5*temp2*cosip*sinip*cos2u
	mvt := rdotl - nm*temp1*x1mth2*sin2u/c.xke
	rvdot := rvdotl + nm*temp1*(x1mth2*cos2u+1.5*con41)/c.xke

	if mrt < 1.0 {
		return fail(CodeDecayed, mrt)
	}

	sinsu, cossu := math.Sin(su), math.Cos(su)
	snod, cnod := math.Sin(xnode), math.Cos(xnode)
	sini, cosi := math.Sin(xinc), math.Cos(xinc)
	xmx := -snod * cosi
	xmy := cnod * cosi
	ux := xmx*sinsu + cnod*cossu
	uy := xmy*sinsu + snod*cossu
	uz := sini * sinsu
	vx := xmx*cossu - cnod*sinsu
	vy := xmy*cossu - snod*sinsu
	vz := sini * cossu

	r = [3]float64{
		mrt * ux * c.radiusEarthKm,
		mrt * uy * c.radiusEarthKm,
		mrt * uz * c.radiusEarthKm,
	}
	v = [3]float64{
		(mvt*ux + rvdot*vx) * vkmpersec,
		(mvt*uy + rvdot*vy) * vkmpersec,
		(mvt*uz + rvdot*vz) * vkmpersec,
	}
	return r, v, nil
}
